package book

import (
	"sync"

	bookv1 "github.com/beacon-exchange/beacon/internal/domain/book/v1"
)

// Registry owns one Book per listed traded token (spec §3 "Book owns its
// orders"). Creation happens only through Tokens.ListToken; the Matcher
// and queries only ever read or mutate an existing entry.
type Registry struct {
	mu    sync.RWMutex
	books map[string]*bookv1.Book
}

// New creates an empty book registry.
func New() *Registry {
	return &Registry{books: make(map[string]*bookv1.Book)}
}

// Get returns the book for token, if listed.
func (r *Registry) Get(token string) (*bookv1.Book, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.books[token]
	return b, ok
}

// Create installs a fresh empty book for token. Called once by
// Tokens.ListToken; a second call is a caller bug, not a runtime error,
// since ListToken already enforces AlreadyListed before reaching here.
func (r *Registry) Create(token string) *bookv1.Book {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := bookv1.NewBook()
	r.books[token] = b
	return b
}

// Delete removes token's book entirely (Janitor delisting).
func (r *Registry) Delete(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.books, token)
}

// Tokens returns every token id with a registered book.
func (r *Registry) Tokens() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.books))
	for t := range r.books {
		out = append(out, t)
	}
	return out
}
