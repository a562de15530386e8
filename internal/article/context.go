package article

import (
	"fmt"
	"regexp"
)

// Kind classifies how a publication context is reconciled.
type Kind int

const (
	// KindUnknown is a context key not in the known table.
	KindUnknown Kind = iota
	// KindJournal contexts take their venue from the display-name table.
	KindJournal
	// KindSeries contexts are repository series without a venue name.
	KindSeries
	// KindFaculty contexts take venue and source full-text URL from metadata.
	KindFaculty
)

func (k Kind) String() string {
	switch k {
	case KindJournal:
		return "journal"
	case KindSeries:
		return "series"
	case KindFaculty:
		return "faculty"
	default:
		return "unknown"
	}
}

// FacultyScholarship is the faculty publications context key.
const FacultyScholarship = "faculty_scholarship"

// Context is a publication series or journal code with its reconciliation behavior.
type Context struct {
	Key         string
	Publication string // Fixed venue display name (journals only)
	Kind        Kind
}

// IsFaculty reports whether venue data comes from the metadata report.
func (c Context) IsFaculty() bool {
	return c.Kind == KindFaculty
}

func (c Context) String() string {
	return c.Key
}

// knownContexts lists every context the repository exports, in default import order.
var knownContexts = []Context{
	{Key: "alr", Publication: "Alaska Law Review", Kind: KindJournal},
	{Key: "bernstein", Publication: "Herbert L. Bernstein Memorial Lecture in International and Comparative Law", Kind: KindJournal},
	{Key: "delpf", Publication: "Duke Environmental Law & Policy Forum", Kind: KindJournal},
	{Key: "dflsc", Publication: "Duke Forum for Law & Social Change", Kind: KindJournal},
	{Key: "dflsc_symposium", Publication: "Duke Forum for Law & Social Change (Symposium)", Kind: KindJournal},
	{Key: "djcil", Publication: "Duke Journal of Comparative & International Law", Kind: KindJournal},
	{Key: "djcil_online", Publication: "Duke Journal of Comparative & International Law Online", Kind: KindJournal},
	{Key: "djclpp", Publication: "Duke Journal of Constitutional Law & Public Policy", Kind: KindJournal},
	{Key: "djclpp_sidebar", Publication: "Duke Journal of Constitutional Law & Public Policy Sidebar", Kind: KindJournal},
	{Key: "djglp", Publication: "Duke Journal of Gender Law & Policy", Kind: KindJournal},
	{Key: "dlj", Publication: "Duke Law Journal", Kind: KindJournal},
	{Key: "dlj_online", Publication: "Duke Law Journal Online", Kind: KindJournal},
	{Key: "dltr", Publication: "Duke Law & Technology Review", Kind: KindJournal},
	{Key: "alr_onlineforum", Publication: "Alaska Law Review Online Forum", Kind: KindJournal},
	{Key: "alr_yearinreview", Publication: "Alaska Law Review Year in Review", Kind: KindJournal},
	{Key: "studentpapers", Kind: KindSeries},
	{Key: "lcp", Publication: "Law and Contemporary Problems", Kind: KindJournal},
	{Key: "working_papers", Kind: KindSeries},
	{Key: "etd", Kind: KindSeries},
	{Key: FacultyScholarship, Kind: KindFaculty},
}

var contextsByKey = func() map[string]Context {
	m := make(map[string]Context, len(knownContexts))
	for _, c := range knownContexts {
		m[c.Key] = c
	}
	return m
}()

// LookupContext returns the context for key.
// Unknown keys yield a KindUnknown context with no publication name.
func LookupContext(key string) Context {
	if c, ok := contextsByKey[key]; ok {
		return c
	}
	return Context{Key: key, Kind: KindUnknown}
}

// KnownContexts returns all context keys in default import order.
func KnownContexts() []string {
	keys := make([]string, len(knownContexts))
	for i, c := range knownContexts {
		keys[i] = c.Key
	}
	return keys
}

// DefaultIdentifierPrefix is the OAI namespace of the repository.
const DefaultIdentifierPrefix = "oai:scholarship.law.duke.edu"

// NewIdentifier builds the stable external identifier "{prefix}:{context}-{manuscript}".
func NewIdentifier(prefix, context, manuscript string) string {
	return fmt.Sprintf("%s:%s-%s", prefix, context, manuscript)
}

var identifierContextRe = regexp.MustCompile(`:([a-z_]+)-\d+$`)

// ContextFromIdentifier extracts the context key from an identifier.
// Returns "" if the identifier does not have the expected shape.
func ContextFromIdentifier(identifier string) string {
	m := identifierContextRe.FindStringSubmatch(identifier)
	if m == nil {
		return ""
	}
	return m[1]
}
