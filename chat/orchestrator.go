// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chat

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/retrieval"
	"github.com/poiesic/recall/storage"
)

const (
	// DefaultHistoryLimit caps how many prior messages are replayed to the
	// model on each turn.
	DefaultHistoryLimit = 20

	// profileWindow is how many trailing user messages feed profile
	// extraction.
	profileWindow = 6

	// titleLimit bounds auto-generated conversation titles.
	titleLimit = 60
)

// systemPrompt is the base instruction; retrieved context is appended.
const systemPrompt = "You are a helpful assistant. Answer the user's question directly and concisely."

// ContextRetriever supplies user context for a query. *retrieval.Retriever
// satisfies it.
type ContextRetriever interface {
	Retrieve(ctx context.Context, userId core.ID, query string, sel *retrieval.SourceSelection) (*retrieval.Context, error)
}

// Reply is the outcome of one completed chat turn.
type Reply struct {
	ConversationId   core.ID
	UserMessage      *core.Message
	AssistantMessage *core.Message

	// ContextUsed reports whether retrieved user context was injected into
	// the prompt for this turn.
	ContextUsed bool
}

// Orchestrator runs the chat turn protocol: persist the user message,
// retrieve context, generate a reply, persist it, then kick off detached
// post-turn work (message embedding backfill and profile extraction) that
// never blocks or fails the turn.
type Orchestrator struct {
	convs     storage.ConversationRepository
	profiles  storage.ProfileRepository
	retriever ContextRetriever
	responder ai.Responder
	embedder  ai.Embedder
	extractor ai.ProfileExtractor

	pool         *ants.Pool
	historyLimit int
	logger       *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithHistoryLimit sets how many prior messages are replayed to the model.
// Default is DefaultHistoryLimit.
func WithHistoryLimit(limit int) Option {
	return func(o *Orchestrator) error {
		if limit > 0 {
			o.historyLimit = limit
		}
		return nil
	}
}

// WithPoolSize sets the worker pool size for post-turn tasks.
func WithPoolSize(size int) Option {
	return func(o *Orchestrator) error {
		if size <= 0 {
			return ErrInvalidPoolSize
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if o.pool != nil {
			o.pool.Release()
		}
		o.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// NewOrchestrator creates a chat orchestrator. The extractor may be nil,
// which disables profile extraction.
func NewOrchestrator(
	convs storage.ConversationRepository,
	profiles storage.ProfileRepository,
	retriever ContextRetriever,
	responder ai.Responder,
	embedder ai.Embedder,
	extractor ai.ProfileExtractor,
	opts ...Option,
) (*Orchestrator, error) {
	if convs == nil {
		return nil, ErrConversationRepositoryRequired
	}
	if profiles == nil {
		return nil, ErrProfileRepositoryRequired
	}
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if responder == nil {
		return nil, ErrResponderRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	o := &Orchestrator{
		convs:        convs,
		profiles:     profiles,
		retriever:    retriever,
		responder:    responder,
		embedder:     embedder,
		extractor:    extractor,
		historyLimit: DefaultHistoryLimit,
		logger:       slog.Default().With("component", "chat"),
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			if o.pool != nil {
				o.pool.Release()
			}
			return nil, err
		}
	}

	if o.pool == nil {
		size := runtime.NumCPU() / 2
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return nil, err
		}
		o.pool = pool
	}

	return o, nil
}

// Release shuts down the post-turn worker pool. Tasks already submitted may
// be dropped.
func (o *Orchestrator) Release() {
	o.pool.Release()
}

// SendMessage runs one chat turn. conversationId 0 starts a new
// conversation titled from the message. Persistence and generation failures
// fail the turn; retrieval failure degrades to an uncontextualized reply.
func (o *Orchestrator) SendMessage(ctx context.Context, conversationId, userId core.ID, content string, sel *retrieval.SourceSelection) (*Reply, error) {
	userMsg := &core.Message{
		Role:      core.RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
	if err := core.ValidateMessage(userMsg); err != nil {
		return nil, err
	}

	// Step 1: ensure the conversation exists and belongs to the caller,
	// then persist the user turn. The message is durable even if everything
	// after this fails.
	if conversationId == 0 {
		conv, err := o.convs.AddConversation(ctx, &core.Conversation{
			OwnerId: userId,
			Title:   truncateTitle(content),
		})
		if err != nil {
			return nil, err
		}
		conversationId = conv.Id
	} else {
		conv, err := o.convs.GetConversation(ctx, conversationId)
		if err != nil {
			return nil, err
		}
		// A foreign conversation reads as missing so ids never leak.
		if conv.OwnerId != userId {
			return nil, storage.ErrNotFound
		}
	}
	persisted, err := o.convs.AppendMessages(ctx, conversationId, userMsg)
	if err != nil {
		return nil, err
	}
	userMsg = persisted[0]

	// Step 2: replay history, which now ends with the user turn.
	history, err := o.convs.GetRecentMessages(ctx, conversationId, o.historyLimit)
	if err != nil {
		return nil, err
	}

	// Step 3: retrieve context. Failure here must not lose the turn.
	userContext, err := o.retriever.Retrieve(ctx, userId, content, sel)
	if err != nil {
		o.logger.Warn("error retrieving context, continuing without it",
			"conversationId", conversationId, "err", err)
		userContext = &retrieval.Context{}
	}
	contextBlock := retrieval.Format(userContext)

	// Step 4: generate the reply.
	answer, err := o.responder.Respond(ctx, systemPrompt+contextBlock, toTurns(history))
	if err != nil {
		return nil, err
	}

	// Step 5: persist the assistant turn.
	assistantMsg := &core.Message{
		Role:      core.RoleAssistant,
		Content:   answer,
		Timestamp: time.Now(),
	}
	persisted, err = o.convs.AppendMessages(ctx, conversationId, assistantMsg)
	if err != nil {
		return nil, err
	}
	assistantMsg = persisted[0]

	// Step 6: detached post-turn work. Submission failure is only logged.
	if err := o.pool.Submit(func() {
		o.backfillEmbeddings(context.Background(), userMsg, assistantMsg)
	}); err != nil {
		o.logger.Warn("error submitting embedding backfill", "err", err)
	}
	if o.extractor != nil {
		if err := o.pool.Submit(func() {
			o.extractProfile(context.Background(), conversationId, userId)
		}); err != nil {
			o.logger.Warn("error submitting profile extraction", "err", err)
		}
	}

	return &Reply{
		ConversationId:   conversationId,
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		ContextUsed:      contextBlock != "",
	}, nil
}

// toTurns converts stored messages to model turns, oldest first.
func toTurns(history []*core.Message) []ai.ChatTurn {
	turns := make([]ai.ChatTurn, len(history))
	for i, msg := range history {
		role := ai.ChatRoleUser
		if msg.Role == core.RoleAssistant {
			role = ai.ChatRoleAssistant
		}
		turns[i] = ai.ChatTurn{Role: role, Content: msg.Content}
	}
	return turns
}

func truncateTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= titleLimit {
		return content
	}
	return string(runes[:titleLimit])
}
