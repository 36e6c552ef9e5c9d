package game

import (
	"github.com/lonng/nano/pipeline"
	"github.com/lonng/nano/session"
	"github.com/pkg/errors"
	"github.com/xxtea/xxtea-go/xxtea"
)

type crypto struct {
	key []byte
}

func newCrypto(key string) *crypto {
	return &crypto{key: []byte(key)}
}

func (c *crypto) inbound(s *session.Session, msg *pipeline.Message) error {
	out := xxtea.Decrypt(msg.Data, c.key)
	if out == nil {
		return errors.Errorf("decrypt error=%d bytes", len(msg.Data))
	}
	msg.Data = out
	return nil
}

func (c *crypto) outbound(s *session.Session, msg *pipeline.Message) error {
	out := xxtea.Encrypt(msg.Data, c.key)
	if out == nil {
		return errors.Errorf("encrypt error=%d bytes", len(msg.Data))
	}
	msg.Data = out
	return nil
}
