package importer

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dukelaw/repometrics/internal/article"
)

// IdentifierFinder looks up stored articles by stable identifier.
type IdentifierFinder interface {
	FindByIdentifier(ctx context.Context, identifier string) ([]*article.Article, error)
}

// URLFinder looks up stored articles by canonical URL.
type URLFinder interface {
	FindByURL(ctx context.Context, url string) ([]*article.Article, error)
}

// Resolution is the outcome of resolving a row to an article.
type Resolution struct {
	Article *article.Article
	Created bool // No stored article matched; Article is new and unsaved
}

// ResolveArticle finds the article for identifier, or starts a new one.
// More than one match returns a *DuplicateIdentifierError.
func ResolveArticle(ctx context.Context, finder IdentifierFinder, identifier string) (Resolution, error) {
	found, err := finder.FindByIdentifier(ctx, identifier)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolving %s: %w", identifier, err)
	}
	switch len(found) {
	case 0:
		return Resolution{Article: &article.Article{Identifier: identifier}, Created: true}, nil
	case 1:
		return Resolution{Article: found[0]}, nil
	default:
		return Resolution{}, &DuplicateIdentifierError{Field: "oai_identifier", Key: identifier, Count: len(found)}
	}
}

// ResolveByURL finds the single stored article whose canonical URL is u.
// No match returns a *LookupMissError; several a *DuplicateIdentifierError.
func ResolveByURL(ctx context.Context, finder URLFinder, u string) (*article.Article, error) {
	found, err := finder.FindByURL(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", u, err)
	}
	switch len(found) {
	case 0:
		return nil, &LookupMissError{Field: colURL, Key: u}
	case 1:
		return found[0], nil
	default:
		return nil, &DuplicateIdentifierError{Field: "article_url", Key: u, Count: len(found)}
	}
}

// PDFURL renders the download link for a manuscript: {base}?article={manuscript}&context={context}.
func PDFURL(base, manuscript, contextKey string) string {
	q := url.Values{}
	q.Set("article", manuscript)
	q.Set("context", contextKey)
	return base + "?" + q.Encode()
}
