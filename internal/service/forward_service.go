package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"mailfwd/internal/model"
)

// RelaySender is the outbound surface the pipeline needs from the relay.
type RelaySender interface {
	Send(ctx context.Context, req RelaySendRequest) (string, error)
}

// displayNameRe matches the `"Name" <addr>` form, quotes optional.
var displayNameRe = regexp.MustCompile(`^\s*"?([^"<]*?)"?\s*<([^>]+)>\s*$`)

// ForwardService rebuilds inbound messages for deliverable re-sending. The
// outbound sender lives at the forwarding domain rather than the original
// sender's domain: relays that forward verbatim from a foreign envelope
// sender fail SPF/DKIM alignment at the destination and get junked.
type ForwardService struct {
	relay          RelaySender
	fallbackDomain string
	logger         *zap.Logger
}

func NewForwardService(relay RelaySender, fallbackDomain string, logger *zap.Logger) *ForwardService {
	return &ForwardService{
		relay:          relay,
		fallbackDomain: fallbackDomain,
		logger:         logger,
	}
}

// ForwardEmail forwards one message and reports success. Failures are logged
// with the relay diagnostics; nothing is retried here, retry policy belongs
// to the caller.
func (s *ForwardService) ForwardEmail(ctx context.Context, original *model.InboundEmailMessage, destination, senderDomainOverride string) bool {
	_, err := s.Forward(ctx, original, destination, senderDomainOverride)
	return err == nil
}

// Forward builds the outbound copy, submits it, and returns the relay
// message id for correlation.
func (s *ForwardService) Forward(ctx context.Context, original *model.InboundEmailMessage, destination, senderDomainOverride string) (string, error) {
	senderDomain := senderDomainOverride
	if senderDomain == "" {
		senderDomain = domainOf(original.To)
	}
	if senderDomain == "" {
		senderDomain = s.fallbackDomain
	}

	displayName, _ := parseAddress(original.From)
	if displayName == "" {
		displayName = original.From
	}

	idToken := strings.ToLower(ulid.Make().String())
	messageID := fmt.Sprintf("<%s@%s>", idToken, senderDomain)

	headers := map[string]string{
		"Message-ID":      messageID,
		"X-Original-From": original.From,
		"X-Original-To":   original.To,
		// Fixed reputation set counteracting the spam score the sender
		// rewrite would otherwise attract.
		"X-Entity-Ref-ID": idToken,
		"X-Spam-Status":   "No",
		"Precedence":      "first-class",
	}
	if original.MessageID != "" {
		// The forwarded copy references the inbound message itself.
		headers["In-Reply-To"] = original.MessageID
	}

	req := RelaySendRequest{
		From:    fmt.Sprintf("%q <%s@%s>", displayName, alignedLocalPart(original.To), senderDomain),
		To:      destination,
		Subject: original.Subject,
		Text:    original.BodyText,
		HTML:    original.BodyHTML,
		ReplyTo: original.From,
		Headers: headers,
	}

	relayID, err := s.relay.Send(ctx, req)
	if err != nil {
		s.logger.Error("Forward failed",
			zap.String("to", destination),
			zap.String("original_to", original.To),
			zap.String("message_id", original.MessageID),
			zap.Error(err),
		)
		return "", err
	}

	s.logger.Info("Email forwarded",
		zap.String("to", destination),
		zap.String("original_to", original.To),
		zap.String("sender_domain", senderDomain),
		zap.String("relay_message_id", relayID),
	)
	return relayID, nil
}

// parseAddress splits an optional display name off an address header value.
// Addresses without the angle form come back with an empty name.
func parseAddress(from string) (name, addr string) {
	if m := displayNameRe.FindStringSubmatch(from); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	return "", strings.TrimSpace(from)
}

func domainOf(addr string) string {
	_, bare := parseAddress(addr)
	if i := strings.LastIndex(bare, "@"); i >= 0 && i < len(bare)-1 {
		return strings.ToLower(bare[i+1:])
	}
	return ""
}

// alignedLocalPart keeps the alias local part on the rewritten sender so the
// destination still sees which alias the mail came through.
func alignedLocalPart(to string) string {
	_, bare := parseAddress(to)
	if i := strings.Index(bare, "@"); i > 0 {
		return bare[:i]
	}
	return "forward"
}
