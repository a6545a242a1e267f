package mirror

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/buger/goterm"
	log "github.com/sirupsen/logrus"

	"github.com/margo-build/margo/pkg/errors"
)

// CopyArtifacts copies each discovered build artifact from the mirror back
// to the equivalent location under the workspace root, creating any missing
// parent directories. An empty artifact list is a no-op.
func CopyArtifacts(destDir, workspaceRoot string, artifacts []string) error {
	for _, artifact := range artifacts {
		relPath, err := filepath.Rel(destDir, artifact)
		if err != nil || strings.HasPrefix(relPath, "..") {
			return errors.New(fmt.Sprintf(
				"artifact %q is outside the mirror %q", artifact, destDir))
		}

		originPath := filepath.Join(workspaceRoot, relPath)
		if err := fs.MkdirAll(filepath.Dir(originPath), 0755); err != nil {
			return errors.WithContext(err, "create parent for "+originPath)
		}
		if err := copyFile(artifact, originPath); err != nil {
			return errors.WithContext(err,
				fmt.Sprintf("copy artifact %s -> %s", artifact, originPath))
		}

		log.WithField("path", originPath).Debug("Repatriated build artifact")
		fmt.Println(goterm.Color(
			fmt.Sprintf("Copied compile artifact to %s", originPath), goterm.GREEN))
	}
	return nil
}
