package classifier

import "strings"

// legalKeywords is the offline vocabulary used when the remote classifier is
// unavailable. Matching is by substring on the lower-cased message, so short
// terms such as "act" or "will" deliberately match inside longer words.
var legalKeywords = []string{
	"law", "legal", "lawyer", "attorney", "court", "judge", "contract", "agreement",
	"lawsuit", "litigation", "statute", "regulation", "rights", "liability", "damages",
	"plaintiff", "defendant", "jurisdiction", "precedent", "case law", "constitutional",
	"criminal", "civil", "family law", "corporate law", "intellectual property",
	"patent", "trademark", "copyright", "employment law", "tax law", "immigration",
	"real estate", "property law", "tort", "negligence", "breach", "warranty",
	"lease", "deed", "will", "trust", "estate", "bankruptcy", "divorce", "custody",
	"adoption", "marriage", "domestic", "harassment", "discrimination", "federal",
	"state", "municipal", "ordinance", "code", "act", "bill", "legislation",
	"regulatory", "compliance", "violation", "penalty", "fine", "imprisonment",
	"probation", "parole", "arrest", "warrant", "subpoena", "evidence", "testimony",
	"witness", "jury", "verdict", "appeal", "sentence", "prosecution", "defense",
	"legal advice", "counsel", "representation", "retainer", "bar exam", "esquire",
}

// MatchesKeyword reports whether text contains any legal keyword,
// case-insensitively.
func MatchesKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range legalKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
