package txorm

import (
	"strings"
)

/*
SQL-92 reserved words, reserved on `Default`. Entries split on whitespace, so
multi-part entries like "current_ user" contribute each part.
*/
const ReservedWords = `
absolute action add all allocate alter and any are as asc assertion at
authorization avg begin between bit bit_length both by cascade cascaded case
cast catalog char character char_ length character_length check close coalesce
collate collation column commit connect connection constraint constraints
continue convert corresponding count create cross current current_date
current_time current_timestamp current_ user cursor date day deallocate dec
decimal declare default deferrable deferred delete desc describe descriptor
diagnostics disconnect distinct domain double drop else end end-exec escape
except exception exec execute exists external extract false fetch first float
for foreign found from full get global go goto grant group having hour identity
immediate in indicator initially inner input insensitive insert int integer
intersect interval into is isolation join key language last leading left level
like local lower match max min minute module month names national natural nchar
next no not null nullif numeric octet_length of on only open option or order
outer output overlaps pad partial position precision prepare preserve primary
prior privileges procedure public read real references relative restrict revoke
right rollback rows schema scroll second section select session session_ user
set size smallint some space sql sqlcode sqlerror sqlstate substring sum system_
user table temporary then time timestamp timezone_ hour timezone_ minute to
trailing transaction translate translation trim true union unique unknown update
upper usage user using value values varchar varying view when whenever where
with work write year zone
`

var (
	charsetLetter     = new(charset).addStr(`ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz`)
	charsetDigitDec   = new(charset).addStr(`0123456789`)
	charsetIdentStart = charsetLetter
	charsetIdent      = new(charset).addSet(charsetLetter).addSet(charsetDigitDec).addStr(`_`)
)

type charset [256]bool

func (self *charset) has(val byte) bool { return self[val] }

func (self *charset) addStr(vals string) *charset {
	for _, val := range vals {
		self[val] = true
	}
	return self
}

func (self *charset) addSet(vals *charset) *charset {
	for ind, val := range vals {
		if val {
			self[ind] = true
		}
	}
	return self
}

// True if the text is a letter followed by letters, digits or underscores.
func isIdent(text string) bool {
	if len(text) == 0 || !charsetIdentStart.has(text[0]) {
		return false
	}
	for ind := 1; ind < len(text); ind++ {
		if !charsetIdent.has(text[ind]) {
			return false
		}
	}
	return true
}

/*
True if the compiler would render the token without quotes: it's a plain
identifier and isn't reserved on the compiler or its ancestors.
*/
func (self *Compiler) IsSafeToken(text string) bool {
	return isIdent(text) && !self.IsReservedWord(text)
}

/*
Quotes the token with the given quote character, doubling inner occurrences,
unless it's safe for the compiler. Dialects with a different identifier quote
register an `SQLToken` handler calling this.
*/
func (self *Compiler) QuoteToken(text string, quote byte) string {
	if self.IsSafeToken(text) {
		return text
	}
	q := string(quote)
	return q + strings.ReplaceAll(text, q, q+q) + q
}

func compileToken(comp *Compiler, expr SQLToken, _ *State) string {
	return comp.QuoteToken(string(expr), '"')
}
