package southbound

import "context"

type System interface {
	GetVersion(ctx context.Context) (string, error)
}
