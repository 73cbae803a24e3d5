// Package celebration builds the certificate shown when a learner finishes an
// interactive run for a named gene.
package celebration

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/kingrea/translation-initiation/internal/session"
)

// TimestampLayout renders completion times like "March 14, 2025 at 03:04 PM".
const TimestampLayout = "January 2, 2006 at 03:04 PM"

// Footer is printed under every certificate.
const Footer = "Translation Initiation Art Project"

// Quote is a literary line bent toward translation.
type Quote struct {
	Text  string
	Title string
}

// Quotes is the pool a certificate draws from.
var Quotes = []Quote{
	{"It was the best of contexts, it was the worst of contexts… for ribosomal scanning.", "A Tale of Two Translations"},
	{"To initiate or not to initiate, that is the question.", "Prince of the Ribosome"},
	{"All mRNAs are stages, and all the ribosomes and factors merely players.", "As You Like to Translate It"},
	{"Call me AUG.", "Moby Translation"},
	{"It is a truth universally acknowledged, that a single-stranded mRNA in possession of a good 5′ cap, must be in want of a ribosome.", "Pride and Polysomes"},
	{"All happy mRNAs resemble one another; each poorly translated mRNA is poorly translated in its own way.", "Initiation Karenina"},
	{"Ribosome, ribosome, wherefore art thou scanning ribosome?", "Ribosome and Translation"},
	{"So we beat on, caps against the current, borne back ceaselessly into the 5′ UTR.", "The Great Translation"},
	{"Reader, I initiated translation.", "Jane eIFre"},
	{"It was a bright cold day in the cytoplasm, and the ribosomes were striking 43S.", "Initiation 1984"},
	{"You never really understand translation until you consider the mRNA from both ends.", "To Initiate a Codon"},
	{"Once upon a time, there was an mRNA who refused to be translated.", "The Translationless Princess"},
	{"Once you eliminate the impossible, whatever remains, must be an alternative start codon.", "The AUG of the Baskervilles"},
	{"mRNAs are not born equal. Some are more initiating than others.", "Translation Farm"},
	{"Is this a start codon I see before me, its context toward my P site?", "MacTranslation"},
	{"There and back again: a ribosome's journey across the 5′ UTR.", "The Hobbit: An Unexpected Translation"},
}

// Certificate is everything the celebration screen displays.
type Certificate struct {
	SessionID string
	Subject   string
	Timestamp string
	Quote     Quote
	FileName  string
}

// New builds a certificate for a completed run. A nil rng draws from the
// global source.
func New(c session.Completion, rng *rand.Rand) Certificate {
	var idx int
	if rng != nil {
		idx = rng.IntN(len(Quotes))
	} else {
		idx = rand.IntN(len(Quotes))
	}
	return Certificate{
		SessionID: c.SessionID,
		Subject:   c.Subject,
		Timestamp: c.CompletedAt.Format(TimestampLayout),
		Quote:     Quotes[idx],
		FileName:  fmt.Sprintf("%s_translation_%d.png", fileSafe(c.Subject), c.CompletedAt.UnixMilli()),
	}
}

// Headline is the congratulation line naming the gene.
func (c Certificate) Headline() string {
	return fmt.Sprintf("You successfully initiated translation of %s", c.Subject)
}

// Dateline introduces the completion time.
func (c Certificate) Dateline() string {
	return "On " + c.Timestamp
}

// Attribution is the quote's title line.
func (c Certificate) Attribution() string {
	return "— " + c.Quote.Title
}

func fileSafe(subject string) string {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "gene"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ', '\t':
			return '_'
		}
		return r
	}, subject)
}
