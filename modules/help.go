package modules

import (
	"context"
	"strings"

	"github.com/nicebartender/runbot/bot"
	"github.com/nicebartender/runbot/command"
	"github.com/nicebartender/runbot/event"
)

// Help lists the modules registered on reg at the time it runs.
func Help(reg *bot.Registry) (*bot.Command, error) {
	return bot.NewCommand("help", Prefix+"help", func(ctx context.Context, b *bot.Bot, m *event.Message, _ command.Args) (bool, error) {
		_, err := b.Reply(ctx, m, event.Text(helpText(reg.Modules())))
		return true, err
	})
}

func helpText(mods []*bot.Module) string {
	if len(mods) == 0 {
		return "no modules installed"
	}
	var sb strings.Builder
	sb.WriteString("modules:")
	for _, mod := range mods {
		sb.WriteString("\n" + mod.Name())
		if mod.Help() != "" {
			sb.WriteString(": " + mod.Help())
		}
	}
	return sb.String()
}
