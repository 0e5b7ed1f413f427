// Package parse decodes the JSON-encoded arguments that LLMs attach to tool
// calls. Because models frequently emit almost-JSON (single quotes, trailing
// commas, cut-off objects), callers can choose between strict decoding with
// [Arguments] and a repairing variant, [RepairArguments], backed by jsonrepair.
//
// [ArgumentsOrEmpty] is the tolerant entry point used when analysing
// transcripts: it never fails and degrades to an empty map.
package parse
