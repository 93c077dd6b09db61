// Package quote fetches live quotes for hk, us and forex symbols.
//
// Every quote is a plain string. HK and US quotes look like
// "price,change(percent%)", forex quotes are the raw price and any symbol
// that could not be fetched gets NotAvailable. Failures never surface as
// errors to callers.
package quote

import "context"

// NotAvailable is the quote reported for a symbol whose fetch failed.
const NotAvailable = "Not available"

// Result is the quote for one symbol.
type Result struct {
	Symbol string
	Quote  string
}

// Available reports whether the result carries a real quote.
func (r Result) Available() bool {
	return r.Quote != "" && r.Quote != NotAvailable
}

// Source produces exactly one Result per distinct input symbol.
type Source interface {
	Quotes(ctx context.Context, symbols []string) []Result
}

// Snapshot turns an ordered result list into a symbol lookup.
func Snapshot(results []Result) map[string]string {
	m := make(map[string]string, len(results))
	for _, r := range results {
		m[r.Symbol] = r.Quote
	}
	return m
}
