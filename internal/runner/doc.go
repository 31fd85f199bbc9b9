// Package runner executes the external tools a release depends on
// (git, changie, cargo, the pager) behind a single injectable interface.
//
// Every collaborator is invoked as Run(ctx, name, args...). A non-zero
// exit is returned as a *CommandError carrying the command's diagnostic
// output; callers decide whether a failure is fatal (the default) or
// tolerated. Tests substitute a Recorder instead of spawning processes.
package runner
