// Package modules holds the processors shipped with the runbot binary.
package modules

import (
	"fmt"

	"github.com/nicebartender/runbot/bot"
	"github.com/nicebartender/runbot/db"
)

// Prefix is the command prefix pattern every built-in command starts with.
const Prefix = "[-|/|~]"

type Config struct {
	// Archive may be nil, in which case archiving, history and seen are off.
	Archive *db.DB
	// AutoApproveFriends accepts every friend request.
	AutoApproveFriends bool
}

// Install registers the built-in processors on reg in dispatch order: the
// archive first so it sees every event, then the modules, then help.
func Install(reg *bot.Registry, cfg Config) error {
	var procs []bot.Processor
	if cfg.Archive != nil {
		procs = append(procs, NewArchive(cfg.Archive))
	}

	admin, err := Admin()
	if err != nil {
		return fmt.Errorf("admin module: %w", err)
	}
	utility, err := Utility(cfg.Archive)
	if err != nil {
		return fmt.Errorf("utility module: %w", err)
	}
	procs = append(procs, admin, utility)

	if cfg.AutoApproveFriends {
		procs = append(procs, AutoApprove())
	}
	help, err := Help(reg)
	if err != nil {
		return fmt.Errorf("help: %w", err)
	}
	procs = append(procs, help)

	return reg.Add(procs...)
}
