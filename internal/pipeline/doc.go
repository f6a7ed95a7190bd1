// Package pipeline annotates HTML files in batches.
//
// A Pipeline runs a sequence of Steps over a Task: the default pipeline
// loads and parses the input, runs an Annotator over it, renders the result
// and writes it to the job output. Each Task owns its document and its
// Annotator, so documents never share annotation state.
//
// Processor runs one pipeline per Job with bounded concurrency using
// errgroup. Results keep job order; a failed job is recorded in its Result
// and does not stop the rest of the batch.
package pipeline
