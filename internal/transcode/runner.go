package transcode

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// execRunner runs the real binary. The last lines of stderr are folded into
// the error because ffmpeg reports its failure reason there.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args []string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := stderr.String()
		if len(msg) > 512 {
			msg = msg[len(msg)-512:]
		}
		return fmt.Errorf("%s: %w: %s", name, err, msg)
	}
	return nil
}
