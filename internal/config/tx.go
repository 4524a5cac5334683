package config

import (
	"errors"
	"os"

	"github.com/charmbracelet/log"

	"cppx/internal/document"
)

// Tx runs load-mutate-save transactions. Log receives the document's
// warnings, such as a file edited on disk while it was being mutated.
type Tx struct {
	Log *log.Logger
}

// Update loads the document at path, applies fn and saves the result.
// Nothing is written when fn fails.
func (tx Tx) Update(path string, fn func(*document.Document) error) error {
	doc, err := document.Load(path)
	if err != nil {
		return err
	}
	return tx.apply(doc, path, fn)
}

// UpdateRegistry is Update for the registry, starting from the
// placeholder registry when the file does not exist yet.
func (tx Tx) UpdateRegistry(path string, fn func(*document.Document) error) error {
	doc, err := document.Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		doc = DefaultRegistry()
	}
	return tx.apply(doc, path, fn)
}

func (tx Tx) apply(doc *document.Document, path string, fn func(*document.Document) error) error {
	doc.SetLogger(tx.Log)
	if err := fn(doc); err != nil {
		return err
	}
	return doc.Save(path)
}

// Update runs Tx{}.Update.
func Update(path string, fn func(*document.Document) error) error {
	return Tx{}.Update(path, fn)
}

// UpdateRegistry runs Tx{}.UpdateRegistry.
func UpdateRegistry(path string, fn func(*document.Document) error) error {
	return Tx{}.UpdateRegistry(path, fn)
}
