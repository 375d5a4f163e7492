package deploy

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// notePrefix is the literal byte sequence every deploy note starts with:
// "ALGOKIT_DEPLOYER:j" followed by the JSON-encoded AppDeployMetadata.
const notePrefix = NoteDeployPrefix + ":j"

// buildDeployNote renders the ARC-2 note for a create/update transaction.
func buildDeployNote(metadata AppDeployMetadata) ([]byte, error) {
	encoded, err := json.Marshal(appDeployMetadataJSON{
		Name:      metadata.Name,
		Version:   metadata.Version,
		Updatable: metadata.Updatable,
		Deletable: metadata.Deletable,
	})
	if err != nil {
		return nil, fmt.Errorf("serialize deploy metadata: %w", err)
	}
	return append([]byte(notePrefix), encoded...), nil
}

// parseDeployNote recovers AppDeployMetadata from a transaction note,
// returning ok == false if the note isn't one of ours (wrong prefix,
// invalid UTF-8, or malformed JSON).
func parseDeployNote(note []byte) (AppDeployMetadata, bool) {
	if !strings.HasPrefix(string(note), notePrefix) {
		return AppDeployMetadata{}, false
	}
	if !utf8.Valid(note) {
		return AppDeployMetadata{}, false
	}
	var decoded appDeployMetadataJSON
	if err := json.Unmarshal(note[len(notePrefix):], &decoded); err != nil {
		return AppDeployMetadata{}, false
	}
	return AppDeployMetadata{
		Name:      decoded.Name,
		Version:   decoded.Version,
		Updatable: decoded.Updatable,
		Deletable: decoded.Deletable,
	}, true
}
