package importer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dukelaw/repometrics/internal/article"
)

var (
	keywordSep    = regexp.MustCompile(`,\s*`)
	disciplineSep = regexp.MustCompile(`;\s*`)
)

// ParseCreators reads "Author N ..." column groups for N = 1, 2, ... until
// the first N without a "First Name" column. Groups with neither a first nor
// a last name are dropped; positions count only kept creators.
func ParseCreators(row EditorRow) []article.Creator {
	var creators []article.Creator
	for n := 1; ; n++ {
		prefix := fmt.Sprintf("Author %d ", n)
		if !row.Has(prefix + "First Name") {
			break
		}
		c := article.Creator{
			First:       row.Trimmed(prefix + "First Name"),
			Middle:      row.Trimmed(prefix + "Middle Name"),
			Last:        row.Trimmed(prefix + "Last Name"),
			Suffix:      row.Trimmed(prefix + "Suffix"),
			Institution: row.Trimmed(prefix + "Institution"),
			Email:       row.Trimmed(prefix + "Email"),
		}
		if c.First == "" && c.Last == "" {
			continue
		}
		c.Position = len(creators) + 1
		creators = append(creators, c)
	}
	return creators
}

// ParseSubjects splits the comma-separated Keywords column.
func ParseSubjects(row EditorRow) []article.Term {
	return splitTerms(row.Text(colKeywords), keywordSep)
}

// ParseDisciplines splits the semicolon-separated disciplines column.
func ParseDisciplines(meta Metadata) []article.Term {
	return splitTerms(meta.Text(metaDisciplines), disciplineSep)
}

func splitTerms(s string, sep *regexp.Regexp) []article.Term {
	var terms []article.Term
	for _, tok := range sep.Split(s, -1) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		terms = append(terms, article.Term{Position: len(terms) + 1, Term: tok})
	}
	return terms
}
