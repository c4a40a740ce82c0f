package manifest

import "github.com/gen2brain/beeep"

// notifyStale raises a desktop notification asking the user to re-run the
// setup step. Headless machines make this fail, which is fine, the CLI
// message is the authoritative channel.
func notifyStale() error {
	return beeep.Notify(
		"Assistant dependencies out of date",
		"Please re-run the setup step to update your runtime.",
		"",
	)
}
