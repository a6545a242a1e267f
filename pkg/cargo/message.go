package cargo

import (
	"bufio"
	"encoding/json"
	"io"

	log "github.com/sirupsen/logrus"
)

// compilerArtifactReason marks the messages that report produced files.
const compilerArtifactReason = "compiler-artifact"

// artifactKinds are the target kinds whose output files get copied back to
// the workspace. Everything else (tests, examples, build scripts, rlibs) is
// ignored.
var artifactKinds = map[string]bool{
	"bin":       true,
	"dylib":     true,
	"cdylib":    true,
	"staticlib": true,
}

// message is the subset of cargo's JSON message schema we consume. The full
// schema is an external, evolving contract, so unknown fields and message
// shapes are tolerated rather than rejected.
type message struct {
	Reason string `json:"reason"`
	Target struct {
		Kind []string `json:"kind"`
	} `json:"target"`
	Filenames []string `json:"filenames"`
}

// collectArtifacts consumes the line-oriented message stream as cargo
// produces it and returns the artifact paths worth repatriating. Records
// that fail to decode are skipped, not fatal: partial information from the
// stream is still useful, and the build's own success or failure is judged
// by the exit code, not by how well we parsed its chatter.
func collectArtifacts(r io.Reader) []string {
	var artifacts []string

	scanner := bufio.NewScanner(r)
	// rustc invocations with many dependencies produce lines well past the
	// default scanner limit.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		var msg message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			log.WithError(err).Debug("Skipping unparseable cargo message")
			continue
		}

		if msg.Reason != compilerArtifactReason || len(msg.Target.Kind) == 0 {
			continue
		}

		// Only the first reported kind decides whether the target's files
		// are collected, even for multi-kind targets.
		if !artifactKinds[msg.Target.Kind[0]] {
			continue
		}
		artifacts = append(artifacts, msg.Filenames...)
	}

	if err := scanner.Err(); err != nil {
		log.WithError(err).Warn("cargo output stream ended early")
	}
	return artifacts
}
