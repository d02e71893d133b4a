// Package safe_tools provides the confirmation-gated side-effect
// tools. Every send-email, share-file and create-event request is
// first staged with a prepare_* tool, which resolves recipients and
// returns a preview plus a confirmation token; the matching confirm_*
// tool re-validates the restated parameters against the staged
// operation before anything reaches Google. The direct one-shot
// variants are only registered when the server runs with --yolo.
package safe_tools
