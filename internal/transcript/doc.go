// Package transcript reads conversation transcripts from files and streams.
//
// Supported encodings are a JSON array of chat-completion messages, a JSON
// object carrying that array under "messages", JSON Lines, and YAML. All of
// them decode through the lenient [ai.Message] codec, so passthrough fields
// and irregular values survive into exports.
package transcript
