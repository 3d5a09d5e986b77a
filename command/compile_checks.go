package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[VerifyLaunchMessage]   = (*VerifyLaunchCommand)(nil)
	_ gocmd.Commander[HandleLaunchMessage]   = (*HandleLaunchCommand)(nil)
	_ gocmd.Commander[SyncAttributesMessage] = (*SyncAttributesCommand)(nil)
	_ gocmd.Commander[BuildReturnMessage]    = (*BuildReturnCommand)(nil)
	_ gocmd.Commander[PurgeNoncesMessage]    = (*PurgeNoncesCommand)(nil)
)
