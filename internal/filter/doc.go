// Package filter implements the line filter at the heart of srcpatch: a
// single forward pass over a document's lines that drops lines matched by
// [rules.LineRule] values and contiguous runs bounded by [rules.BlockRule]
// values.
//
// The filter keeps one piece of state, whether it is currently inside a
// block. Input that ends inside a block loses everything from the trigger
// line onward; [Result.Open] reports this and an [UnterminatedPolicy] lets
// callers turn it into an error.
package filter
