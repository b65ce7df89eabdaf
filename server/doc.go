// Package server is the HTTP surface: document upload and management, note
// CRUD, and the chat endpoint. Handlers stay thin: parse, call the owning
// service, map the error to a status code. User identity arrives in the
// X-User-Id header from an upstream gateway; cross-user access reads as
// not-found.
package server
