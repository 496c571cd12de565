// Package corpus provides CorpusSource implementations.
//
// The default corpus is the KEITH LeakProof Drive technical sheet, embedded
// in the binary as TOML. Custom corpora can be loaded from TOML or YAML files
// with explicit chunks, or from plain-text files that are split by the
// chunking pipeline.
package corpus
