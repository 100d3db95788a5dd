// Package cache persists the per-cycle snapshot (last captured image, last
// transcript, last generated note) so the popup can re-show results after
// the overlay is gone. Entries expire on their own; the cache is never the
// source of truth for an active session.
package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/whispa-ai/whispad/internal/types"
)

const (
	keyLastImage      = "last_captured_image_b64"
	keyLastTranscript = "last_captured_audio_text"
	keyLastNote       = "last_generated_note"

	defaultTTL = 24 * time.Hour
)

// Cache is a badger-backed key/value store.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

// New opens (or creates) a cache at path.
func New(path string) (*Cache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return &Cache{db: db, ttl: defaultTTL}, nil
}

// Close releases the underlying store.
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) setString(key, value string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), []byte(value)).WithTTL(c.ttl)
		return txn.SetEntry(e)
	})
}

func (c *Cache) getString(key string) (string, error) {
	var value string
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("cache get %s: %w", key, err)
	}
	return value, nil
}

// StoreCycle records the inputs and output of one completed
// capture -> record -> generate cycle.
func (c *Cache) StoreCycle(imageB64, transcript string, note types.Note) error {
	if err := c.setString(keyLastImage, imageB64); err != nil {
		return fmt.Errorf("store image: %w", err)
	}
	if err := c.setString(keyLastTranscript, transcript); err != nil {
		return fmt.Errorf("store transcript: %w", err)
	}
	data, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("marshal note: %w", err)
	}
	if err := c.setString(keyLastNote, string(data)); err != nil {
		return fmt.Errorf("store note: %w", err)
	}
	return nil
}

// LastNote returns the most recent generated note, if any.
func (c *Cache) LastNote() (types.Note, bool, error) {
	data, err := c.getString(keyLastNote)
	if err != nil {
		return types.Note{}, false, err
	}
	if data == "" {
		return types.Note{}, false, nil
	}
	var note types.Note
	if err := json.Unmarshal([]byte(data), &note); err != nil {
		return types.Note{}, false, fmt.Errorf("unmarshal note: %w", err)
	}
	return note, true, nil
}

// LastInputs returns the cached image and transcript from the most recent
// cycle.
func (c *Cache) LastInputs() (imageB64, transcript string, err error) {
	imageB64, err = c.getString(keyLastImage)
	if err != nil {
		return "", "", err
	}
	transcript, err = c.getString(keyLastTranscript)
	if err != nil {
		return "", "", err
	}
	return imageB64, transcript, nil
}
