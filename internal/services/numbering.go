package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Document numbers are timestamp plus a random fragment. Collisions are
// unlikely enough at this request rate; the unique column on the table is
// the backstop either way.
func QuoteNumber() string   { return docNumber("Q") }
func InvoiceNumber() string { return docNumber("INV") }

func docNumber(prefix string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", prefix, time.Now().UTC().Format("20060102150405"), suffix)
}
