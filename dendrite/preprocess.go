package dendrite

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/0xxfu/bittensor/protocol"
	"github.com/0xxfu/bittensor/synapse"
)

var ErrIncompleteTerminal = errors.New("dendrite: incomplete dendrite terminal")

// Preprocess stamps s for sending to axon: the timeout, the body hash, a signed
// dendrite terminal and an axon terminal stub without status. s is modified in place
// and returned.
func (d *Dendrite) Preprocess(axon synapse.AxonInfo, s synapse.Synapse, timeout time.Duration) (synapse.Synapse, error) {
	if timeout <= 0 {
		timeout = d.cfg.defaultTimeout
	}

	bodyHash, err := synapse.BodyHash(s)
	if err != nil {
		return nil, err
	}

	nonce := d.nextNonce()
	callID := uuid.NewString()
	hotkey := d.keypair.SS58Address()

	message := protocol.SignatureMessage(nonce, hotkey, axon.Hotkey, callID, bodyHash)
	signature, err := d.keypair.Sign([]byte(message))
	if err != nil {
		return nil, fmt.Errorf("dendrite: signing request: %w", err)
	}

	terminal := &synapse.TerminalInfo{
		IP:        d.cfg.externalIP,
		Version:   protocol.VersionAsInt,
		Nonce:     nonce,
		UUID:      callID,
		Hotkey:    hotkey,
		Signature: "0x" + hex.EncodeToString(signature),
	}
	if err := checkTerminal(terminal, len(signature)); err != nil {
		return nil, err
	}

	h := s.Header()
	h.Timeout = timeout.Seconds()
	h.ComputedBodyHash = bodyHash
	h.Dendrite = terminal
	h.Axon = &synapse.TerminalInfo{
		IP:     axon.IP,
		Port:   axon.Port,
		Hotkey: axon.Hotkey,
	}
	return s, nil
}

// checkTerminal rejects a dendrite terminal an axon could not authenticate.
func checkTerminal(t *synapse.TerminalInfo, signatureLen int) error {
	missing := ""
	switch {
	case t.IP == "":
		missing = "ip"
	case t.Version == 0:
		missing = "version"
	case t.Nonce == 0:
		missing = "nonce"
	case t.UUID == "":
		missing = "uuid"
	case t.Hotkey == "":
		missing = "hotkey"
	case signatureLen == 0:
		missing = "signature"
	}
	if missing != "" {
		return fmt.Errorf("%w: %s is empty", ErrIncompleteTerminal, missing)
	}
	return nil
}
