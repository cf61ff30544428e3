package packets

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"mc-forward-proxy/internal/mcproto"
	"mc-forward-proxy/internal/packet"
)

// VelocityLoginPluginResponseID is the fixed packet ID of
// VelocityLoginPluginResponse.
const VelocityLoginPluginResponseID byte = 0x02

// Property is a single signed or unsigned profile property (most commonly
// "textures"). Signature is nil when the property carries none.
type Property struct {
	Name      string
	Value     string
	Signature *string
}

// VelocityLoginPluginResponse is the client's answer to a
// VelocityLoginPluginRequest. RawPayload is the exact byte span the proxy
// must HMAC-verify; it is retained verbatim rather than reconstructed from
// the parsed fields below, per the wire format's authentication contract.
type VelocityLoginPluginResponse struct {
	MessageID int32
	Signature [32]byte

	// RawPayload is the verbatim bytes read for the response's payload,
	// from immediately after Signature to the end of the packet.
	RawPayload []byte

	Version       int32
	ClientAddress string
	PlayerUUID    mcproto.UUID
	Username      string
	Properties    []Property
}

func (v *VelocityLoginPluginResponse) ByteSize() int {
	return mcproto.VarInt(v.MessageID).Len() + 1 + len(v.Signature) + len(v.RawPayload)
}

// ReadBody decodes the envelope (message ID, payload flag, signature, then
// the raw payload bytes) and, separately, the raw payload's own fields.
func (v *VelocityLoginPluginResponse) ReadBody(r *bufio.Reader, bodyLength int) error {
	msgID, err := mcproto.ReadVarInt(r)
	if err != nil {
		return err
	}

	hasPayload, err := r.ReadByte()
	if err != nil {
		return err
	}
	if hasPayload != 0x01 {
		return fmt.Errorf("%w: login plugin response has no payload", mcproto.ErrInvalidData)
	}

	var signature [32]byte
	if _, err := io.ReadFull(r, signature[:]); err != nil {
		return err
	}

	consumed := mcproto.VarInt(msgID).Len() + 1 + len(signature)
	remaining := bodyLength - consumed
	if remaining < 0 {
		return &packet.SizeMismatchError{Expected: bodyLength, Got: consumed}
	}
	raw := make([]byte, remaining)
	if _, err := io.ReadFull(r, raw); err != nil {
		return err
	}

	v.MessageID = int32(msgID)
	v.Signature = signature
	v.RawPayload = raw

	return v.decodeRawPayload(raw)
}

func (v *VelocityLoginPluginResponse) decodeRawPayload(raw []byte) error {
	cur := bufio.NewReader(bytes.NewReader(raw))

	version, err := mcproto.ReadVarInt(cur)
	if err != nil {
		return err
	}
	clientAddress, err := mcproto.ReadString(cur, mcproto.MaxStringLength)
	if err != nil {
		return err
	}
	playerUUID, err := mcproto.ReadUUID(cur)
	if err != nil {
		return err
	}
	username, err := mcproto.ReadString(cur, mcproto.MaxUsernameLength)
	if err != nil {
		return err
	}
	propertyCount, err := mcproto.ReadVarInt(cur)
	if err != nil {
		return err
	}
	if propertyCount < 0 {
		return fmt.Errorf("%w: negative property count", mcproto.ErrInvalidData)
	}

	properties := make([]Property, 0, propertyCount)
	for i := int32(0); i < int32(propertyCount); i++ {
		name, err := mcproto.ReadString(cur, mcproto.MaxStringLength)
		if err != nil {
			return err
		}
		value, err := mcproto.ReadString(cur, mcproto.MaxStringLength)
		if err != nil {
			return err
		}
		hasSignature, err := cur.ReadByte()
		if err != nil {
			return err
		}
		var signature *string
		if hasSignature == 0x01 {
			s, err := mcproto.ReadString(cur, mcproto.MaxStringLength)
			if err != nil {
				return err
			}
			signature = &s
		}
		properties = append(properties, Property{Name: name, Value: value, Signature: signature})
	}

	v.Version = int32(version)
	v.ClientAddress = clientAddress
	v.PlayerUUID = playerUUID
	v.Username = username
	v.Properties = properties
	return nil
}

// ReadVelocityLoginPluginResponse reads a VelocityLoginPluginResponse from r.
func ReadVelocityLoginPluginResponse(r *bufio.Reader) (*VelocityLoginPluginResponse, error) {
	v := &VelocityLoginPluginResponse{}
	err := packet.ReadManaged(r, VelocityLoginPluginResponseID, v)
	return v, err
}
