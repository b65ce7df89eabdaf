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

// Package chat orchestrates conversation turns.
//
// SendMessage persists the user message, replays recent history, injects
// retrieved user context into the system prompt, generates and persists the
// assistant reply, then hands off to detached workers: embedding backfill
// for the turn's messages and best-effort profile extraction. The user's
// message survives any later failure of the turn, and a retrieval outage
// only degrades the reply to an uncontextualized one.
package chat
