package vpp

import (
	"go.fd.io/govpp/api"
	interfaces "go.fd.io/govpp/binapi/interface"
	"go.fd.io/govpp/binapi/l2"
	"go.fd.io/govpp/binapi/tapv2"
	"go.fd.io/govpp/binapi/vhost_user"
	"go.fd.io/govpp/binapi/vpe"
	"go.fd.io/govpp/binapi/vxlan"

	"github.com/veesix-networks/osvswitch/pkg/southbound"
)

// Validate checks the status carried by a command reply. A reply with a
// zero retval is returned unchanged; a non-zero retval becomes a
// CommandError. Replies that carry no status at all are a ProtocolError.
func Validate(command string, reply api.Message) (api.Message, error) {
	if reply == nil {
		return nil, &southbound.ProtocolError{Command: command, Got: "nothing", Reason: "no reply"}
	}

	retval, ok := retvalOf(reply)
	if !ok {
		return nil, &southbound.ProtocolError{
			Command: command,
			Got:     reply.GetMessageName(),
			Reason:  "reply carries no status field",
		}
	}
	if retval != 0 {
		return nil, &southbound.CommandError{
			Command: command,
			Retval:  retval,
			Reason:  api.RetvalToVPPApiError(retval).Error(),
		}
	}
	return reply, nil
}

func retvalOf(reply api.Message) (int32, bool) {
	switch r := reply.(type) {
	case *tapv2.TapCreateV3Reply:
		return r.Retval, true
	case *tapv2.TapDeleteV2Reply:
		return r.Retval, true
	case *vhost_user.CreateVhostUserIfReply:
		return r.Retval, true
	case *vhost_user.DeleteVhostUserIfReply:
		return r.Retval, true
	case *interfaces.CreateVlanSubifReply:
		return r.Retval, true
	case *interfaces.SwInterfaceSetFlagsReply:
		return r.Retval, true
	case *interfaces.WantInterfaceEventsReply:
		return r.Retval, true
	case *l2.BridgeDomainAddDelReply:
		return r.Retval, true
	case *l2.SwInterfaceSetL2BridgeReply:
		return r.Retval, true
	case *vxlan.VxlanAddDelTunnelV3Reply:
		return r.Retval, true
	case *vpe.ShowVersionReply:
		return r.Retval, true
	default:
		return 0, false
	}
}
