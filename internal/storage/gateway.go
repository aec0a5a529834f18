package storage

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/starford/wordvault/internal/models"
)

// Gateway exposes the named keys of the store as typed operations.
// Every other package goes through a Gateway rather than a Provider.
type Gateway struct {
	p Provider
}

// NewGateway wraps p.
func NewGateway(p Provider) *Gateway {
	return &Gateway{p: p}
}

// Close closes the underlying provider.
func (g *Gateway) Close() error {
	return g.p.Close()
}

// Words returns the stored cards in insertion order.
func (g *Gateway) Words() ([]models.WordCard, error) {
	raw, ok, err := g.p.Get(KeyWords)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []models.WordCard{}, nil
	}
	return decodeWords(raw)
}

// WordsRaw returns the encoded list as stored, or nil when unset.
func (g *Gateway) WordsRaw() ([]byte, error) {
	raw, _, err := g.p.Get(KeyWords)
	return raw, err
}

// AppendWord appends one card to the list.
func (g *Gateway) AppendWord(card models.WordCard) error {
	return g.p.Update(KeyWords, func(current []byte) ([]byte, error) {
		words, err := decodeWords(current)
		if err != nil {
			return nil, err
		}
		words = append(words, card)
		return json.Marshal(words)
	})
}

// AppendWords appends cards in order as a single write.
func (g *Gateway) AppendWords(cards []models.WordCard) error {
	return g.p.Update(KeyWords, func(current []byte) ([]byte, error) {
		words, err := decodeWords(current)
		if err != nil {
			return nil, err
		}
		return json.Marshal(append(words, cards...))
	})
}

// ClearWords replaces the list with an empty one.
func (g *Gateway) ClearWords() error {
	return g.p.Set(KeyWords, []byte("[]"))
}

// PutPending stores the handoff written by a capture trigger.
func (g *Gateway) PutPending(p models.Pending) error {
	word, err := json.Marshal(p.Word)
	if err != nil {
		return err
	}
	src, err := json.Marshal(p.SourceURL)
	if err != nil {
		return err
	}
	if err := g.p.Set(KeySourceURL, src); err != nil {
		return err
	}
	// pendingWord goes last: a reader that sees it also sees sourceUrl.
	return g.p.Set(KeyPendingWord, word)
}

// TakePending returns and clears the handoff. ok is false when no word
// was pending.
func (g *Gateway) TakePending() (models.Pending, bool, error) {
	vals, err := g.p.Take(KeyPendingWord, KeySourceURL)
	if err != nil {
		return models.Pending{}, false, err
	}
	var p models.Pending
	if raw, ok := vals[KeyPendingWord]; ok {
		if err := json.Unmarshal(raw, &p.Word); err != nil {
			return models.Pending{}, false, fmt.Errorf("storage: decode %s: %w", KeyPendingWord, err)
		}
	}
	if raw, ok := vals[KeySourceURL]; ok {
		if err := json.Unmarshal(raw, &p.SourceURL); err != nil {
			return models.Pending{}, false, fmt.Errorf("storage: decode %s: %w", KeySourceURL, err)
		}
	}
	if p.Word == "" {
		return models.Pending{}, false, nil
	}
	return p, true, nil
}

// RemoteEndpoint returns the configured delivery URL, or "".
func (g *Gateway) RemoteEndpoint() (string, error) {
	raw, ok, err := g.p.Get(KeyGoogleScriptURL)
	if err != nil || !ok {
		return "", err
	}
	var u string
	if err := json.Unmarshal(raw, &u); err != nil {
		return "", fmt.Errorf("storage: decode %s: %w", KeyGoogleScriptURL, err)
	}
	return strings.TrimSpace(u), nil
}

// SetRemoteEndpoint stores the delivery URL. An empty url removes it.
func (g *Gateway) SetRemoteEndpoint(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return g.p.Delete(KeyGoogleScriptURL)
	}
	raw, err := json.Marshal(url)
	if err != nil {
		return err
	}
	return g.p.Set(KeyGoogleScriptURL, raw)
}

func decodeWords(raw []byte) ([]models.WordCard, error) {
	words := []models.WordCard{}
	if len(raw) == 0 {
		return words, nil
	}
	if err := json.Unmarshal(raw, &words); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", KeyWords, err)
	}
	if words == nil {
		words = []models.WordCard{}
	}
	return words, nil
}
