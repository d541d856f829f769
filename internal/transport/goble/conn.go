package goble

import (
	"encoding/hex"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/lhbctl/internal/transport"
)

// bleConn wraps ble.Client to implement transport.Conn.
type bleConn struct {
	client ble.Client
	chars  map[string]*ble.Characteristic
	logger *logrus.Logger
}

// IsLive reports whether the link is still up.
func (c *bleConn) IsLive() bool {
	select {
	case <-c.client.Disconnected():
		return false
	default:
		return true
	}
}

func (c *bleConn) lookup(uuid string) (*ble.Characteristic, error) {
	char, ok := c.chars[normalizeUUID(uuid)]
	if !ok {
		return nil, &transport.NotFoundError{Resource: "characteristic", UUID: uuid}
	}
	return char, nil
}

func (c *bleConn) ReadCharacteristic(uuid string) ([]byte, error) {
	char, err := c.lookup(uuid)
	if err != nil {
		return nil, err
	}

	data, err := c.client.ReadCharacteristic(char)
	if err != nil {
		return nil, transport.NormalizeError(err)
	}

	c.logger.WithFields(logrus.Fields{
		"char_uuid": uuid,
		"value":     hex.EncodeToString(data),
	}).Debug("Read characteristic")

	return data, nil
}

func (c *bleConn) WriteCharacteristic(uuid string, data []byte, withResponse bool) error {
	char, err := c.lookup(uuid)
	if err != nil {
		return err
	}

	c.logger.WithFields(logrus.Fields{
		"char_uuid":     uuid,
		"value":         hex.EncodeToString(data),
		"with_response": withResponse,
	}).Debug("Writing characteristic")

	if err := c.client.WriteCharacteristic(char, data, !withResponse); err != nil {
		return transport.NormalizeError(err)
	}
	return nil
}

func (c *bleConn) Close() error {
	if err := c.client.CancelConnection(); err != nil {
		return transport.NormalizeError(err)
	}
	return nil
}
