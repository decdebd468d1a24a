package executor

import (
	"os/exec"
	"sync"
)

// process kills a started command at most once.
type process struct {
	cmd  *exec.Cmd
	once sync.Once
}

func (p *process) kill() {
	p.once.Do(func() {
		if p.cmd.Process == nil {
			return
		}
		killProcessGroup(p.cmd)
	})
}
