// Package search drives query pagination and typed-input suggestions.
//
// A [Pager] owns the cursor and result list for the active query. Reset searches replace the results and start a new
// generation; a scroll only appends, and only when no fetch is outstanding and the cursor is not exhausted.
//
// A [SuggestionEngine] debounces input and tags each request with the text it was made for, so a slow response for an
// older input never replaces the list for the current one.
package search
