package chat

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

// backfillEmbeddings embeds the turn's messages and stores their vectors so
// they become visible to conversation similarity search. Best effort: errors
// are logged, never surfaced to the turn that spawned this.
func (o *Orchestrator) backfillEmbeddings(ctx context.Context, msgs ...*core.Message) {
	var embedded []*core.Message
	for _, msg := range msgs {
		vector, err := o.embedder.EmbedText(ctx, msg.Content)
		if err != nil {
			o.logger.Warn("error embedding message, leaving unembedded",
				"messageId", msg.Id, "err", err)
			continue
		}
		msg.Vector = vector
		embedded = append(embedded, msg)
	}
	if len(embedded) == 0 {
		return
	}

	if _, err := o.convs.UpdateMessages(ctx, embedded...); err != nil {
		o.logger.Warn("error storing message embeddings", "err", err)
		return
	}
	o.logger.Debug("message embeddings backfilled", "count", len(embedded))
}

// extractProfile runs best-effort profile extraction over the trailing user
// messages of the conversation and merges any discovered traits into the
// stored profile.
func (o *Orchestrator) extractProfile(ctx context.Context, conversationId, userId core.ID) {
	history, err := o.convs.GetMessages(ctx, conversationId)
	if err != nil {
		o.logger.Warn("error loading conversation for profile extraction", "err", err)
		return
	}

	text := recentUserText(history, profileWindow)
	if text == "" {
		return
	}

	extracted, err := o.extractor.ExtractProfile(ctx, text)
	if err != nil {
		o.logger.Warn("error extracting profile", "err", err)
		return
	}
	if extracted.Empty() {
		return
	}

	profile, err := o.profiles.GetProfile(ctx, userId)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			o.logger.Warn("error loading profile", "err", err)
			return
		}
		profile = &core.Profile{OwnerId: userId}
	}

	profile.Interests = mergeTraits(profile.Interests, extracted.Interests)
	profile.Concerns = mergeTraits(profile.Concerns, extracted.Concerns)
	if err := o.profiles.PutProfile(ctx, profile); err != nil {
		o.logger.Warn("error storing profile", "err", err)
		return
	}
	o.logger.Debug("profile updated",
		"userId", userId,
		"interests", len(profile.Interests),
		"concerns", len(profile.Concerns))
}

// recentUserText joins the last limit user messages, oldest first.
func recentUserText(history []*core.Message, limit int) string {
	var lines []string
	for i := len(history) - 1; i >= 0 && len(lines) < limit; i-- {
		if history[i].Role == core.RoleUser {
			lines = append(lines, history[i].Content)
		}
	}
	slices.Reverse(lines)
	return strings.Join(lines, "\n")
}

// mergeTraits unions existing and new traits, keeping existing order and
// dropping duplicates.
func mergeTraits(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	merged := slices.Clone(existing)
	for _, t := range existing {
		seen[t] = true
	}
	for _, t := range incoming {
		if t != "" && !seen[t] {
			seen[t] = true
			merged = append(merged, t)
		}
	}
	return merged
}
