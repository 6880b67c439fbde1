package shortcut

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// urlAlphabet has 64 symbols so a random byte masked to 6 bits picks one
// without bias.
const urlAlphabet = "useandom-26T198340PX75pxJACKVERYMINDBUSHWOLF_GQZbfghjklqvwyzrict"

const (
	idLength      = 22 // 132 bits
	maxIDAttempts = 1000
)

var ErrIDSpaceExhausted = errors.New("could not draw an unused id")

// IDGenerator draws random URL-safe ids and re-draws on collision.
type IDGenerator struct {
	rand        io.Reader
	maxAttempts int
}

// NewIDGenerator reads randomness from r; nil means crypto/rand.
func NewIDGenerator(r io.Reader) *IDGenerator {
	if r == nil {
		r = rand.Reader
	}
	return &IDGenerator{rand: r, maxAttempts: maxIDAttempts}
}

// Generate returns an id that appears in neither list.
func (g *IDGenerator) Generate(commandIDs, categoryIDs []string) (string, error) {
	taken := make(map[string]struct{}, len(commandIDs)+len(categoryIDs))
	for _, id := range commandIDs {
		taken[id] = struct{}{}
	}
	for _, id := range categoryIDs {
		taken[id] = struct{}{}
	}

	buf := make([]byte, idLength)
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		if _, err := io.ReadFull(g.rand, buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for i, b := range buf {
			buf[i] = urlAlphabet[b&63]
		}
		id := string(buf)
		if _, dup := taken[id]; !dup {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrIDSpaceExhausted, g.maxAttempts)
}

var defaultIDs = NewIDGenerator(nil)

// GenerateID draws a fresh id from crypto/rand. Running out of attempts means
// the random source is broken, so it panics.
func GenerateID(commandIDs, categoryIDs []string) string {
	id, err := defaultIDs.Generate(commandIDs, categoryIDs)
	if err != nil {
		panic(err)
	}
	return id
}
