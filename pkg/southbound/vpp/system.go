package vpp

import (
	"context"

	"go.fd.io/govpp/binapi/vpe"
)

func (s *Session) GetVersion(ctx context.Context) (string, error) {
	reply, err := request[*vpe.ShowVersionReply](ctx, s, &vpe.ShowVersion{})
	if err != nil {
		return "", err
	}
	return FixString(reply.Version), nil
}
