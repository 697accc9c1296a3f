// Chat transport backed by a whatsmeow multi-device session.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/kaido-bot/kaido/automod/engine"
	"github.com/kaido-bot/kaido/automod/event"
	"github.com/kaido-bot/kaido/media"
	"github.com/kaido-bot/kaido/util"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"
)

// size of the recent inbound message cache, used to render quoted replies
const recentMessages = 2_000

// max size of a remote image fetched for re-upload (profile pictures)
const maxRemoteImageBytes = 10 << 20

// Client implements the engine's Transport and Media interfaces on top of a whatsmeow client.
type Client struct {
	WA     *whatsmeow.Client
	Logger *slog.Logger
	// used to fetch remote images by URL before upload
	HTTP *http.Client

	recent *lru.Cache[string, *waE2E.Message]
}

var (
	_ engine.Transport = (*Client)(nil)
	_ engine.Media     = (*Client)(nil)
)

func NewClient(wa *whatsmeow.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	recent, err := lru.New[string, *waE2E.Message](recentMessages)
	if err != nil {
		panic(err)
	}
	return &Client{
		WA:     wa,
		Logger: logger,
		HTTP:   util.PublicHTTPClient(logger),
		recent: recent,
	}
}

// Remember records an inbound message so later replies can quote it.
func (c *Client) Remember(chat, id string, msg *waE2E.Message) {
	if msg == nil || id == "" {
		return
	}
	c.recent.Add(chat+"/"+id, msg)
}

func parseJID(s string) (types.JID, error) {
	jid, err := types.ParseJID(s)
	if err != nil {
		return types.EmptyJID, fmt.Errorf("parsing JID %q: %w", s, err)
	}
	return jid, nil
}

func (c *Client) ownJID() types.JID {
	if c.WA.Store.ID == nil {
		return types.EmptyJID
	}
	return c.WA.Store.ID.ToNonAD()
}

func (c *Client) SelfID() string {
	own := c.ownJID()
	if own.IsEmpty() {
		return ""
	}
	return own.String()
}

func (c *Client) GroupParticipants(ctx context.Context, group string) ([]engine.Participant, error) {
	jid, err := parseJID(group)
	if err != nil {
		return nil, err
	}
	info, err := c.WA.GetGroupInfo(jid)
	if err != nil {
		return nil, fmt.Errorf("fetching group info: %w", err)
	}
	out := make([]engine.Participant, 0, len(info.Participants))
	for _, p := range info.Participants {
		out = append(out, engine.Participant{
			ID:      p.JID.String(),
			IsAdmin: p.IsAdmin || p.IsSuperAdmin,
		})
	}
	return out, nil
}

func (c *Client) SetGroupBroadcastRestricted(ctx context.Context, group string, restricted bool) error {
	jid, err := parseJID(group)
	if err != nil {
		return err
	}
	return c.WA.SetGroupAnnounce(jid, restricted)
}

func (c *Client) updateParticipant(group, ident string, action whatsmeow.ParticipantChange) error {
	gjid, err := parseJID(group)
	if err != nil {
		return err
	}
	target, err := parseJID(ident)
	if err != nil {
		return err
	}
	res, err := c.WA.UpdateGroupParticipants(gjid, []types.JID{target.ToNonAD()}, action)
	if err != nil {
		return err
	}
	for _, p := range res {
		if p.Error != 0 {
			return fmt.Errorf("participant %s update rejected: code %d", p.JID, p.Error)
		}
	}
	return nil
}

func (c *Client) RemoveParticipant(ctx context.Context, group, ident string) error {
	return c.updateParticipant(group, ident, whatsmeow.ParticipantChangeRemove)
}

func (c *Client) SetParticipantRole(ctx context.Context, group, ident string, role engine.Role) error {
	action := whatsmeow.ParticipantChangeDemote
	if role == engine.RoleAdmin {
		action = whatsmeow.ParticipantChangePromote
	}
	return c.updateParticipant(group, ident, action)
}

func (c *Client) send(ctx context.Context, chat string, msg *waE2E.Message) error {
	jid, err := parseJID(chat)
	if err != nil {
		return err
	}
	resp, err := c.WA.SendMessage(ctx, jid, msg)
	if err != nil {
		return err
	}
	c.Logger.Debug("message sent", "chat", chat, "id", resp.ID)
	return nil
}

func (c *Client) contextInfo(chat string, mentions []string, quote *event.MessageRef) *waE2E.ContextInfo {
	if len(mentions) == 0 && quote == nil {
		return nil
	}
	ci := &waE2E.ContextInfo{MentionedJID: mentions}
	if quote != nil {
		ci.StanzaID = proto.String(quote.ID)
		participant := quote.Participant
		if participant == "" {
			participant = chat
			if quote.FromMe {
				participant = c.SelfID()
			}
		}
		ci.Participant = proto.String(participant)
		if m, ok := c.recent.Get(quote.Chat + "/" + quote.ID); ok {
			ci.QuotedMessage = m
		}
	}
	return ci
}

func (c *Client) SendText(ctx context.Context, chat string, out engine.OutgoingText) error {
	ci := c.contextInfo(chat, out.Mentions, out.Quote)
	if ci == nil {
		return c.send(ctx, chat, &waE2E.Message{Conversation: proto.String(out.Text)})
	}
	return c.send(ctx, chat, &waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text:        proto.String(out.Text),
			ContextInfo: ci,
		},
	})
}

// media bytes, either inline or fetched from a remote URL
func (c *Client) mediaBytes(ctx context.Context, m engine.OutgoingMedia) ([]byte, error) {
	if len(m.Data) > 0 {
		return m.Data, nil
	}
	if m.URL == "" {
		return nil, errors.New("no media data or URL")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching media: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching media: HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxRemoteImageBytes))
}

func (c *Client) SendImage(ctx context.Context, chat string, img engine.OutgoingMedia) error {
	data, err := c.mediaBytes(ctx, img)
	if err != nil {
		return err
	}
	up, err := c.WA.Upload(ctx, data, whatsmeow.MediaImage)
	if err != nil {
		return fmt.Errorf("uploading image: %w", err)
	}
	return c.send(ctx, chat, &waE2E.Message{
		ImageMessage: &waE2E.ImageMessage{
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			Mimetype:      proto.String(http.DetectContentType(data)),
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
			Caption:       proto.String(img.Caption),
			ContextInfo:   c.contextInfo(chat, img.Mentions, nil),
		},
	})
}

func (c *Client) SendVideo(ctx context.Context, chat string, vid engine.OutgoingMedia) error {
	data, err := c.mediaBytes(ctx, vid)
	if err != nil {
		return err
	}
	up, err := c.WA.Upload(ctx, data, whatsmeow.MediaVideo)
	if err != nil {
		return fmt.Errorf("uploading video: %w", err)
	}
	return c.send(ctx, chat, &waE2E.Message{
		VideoMessage: &waE2E.VideoMessage{
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			Mimetype:      proto.String("video/mp4"),
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
			Caption:       proto.String(vid.Caption),
			ContextInfo:   c.contextInfo(chat, vid.Mentions, nil),
		},
	})
}

func (c *Client) SendSticker(ctx context.Context, chat string, webp []byte) error {
	up, err := c.WA.Upload(ctx, webp, whatsmeow.MediaImage)
	if err != nil {
		return fmt.Errorf("uploading sticker: %w", err)
	}
	return c.send(ctx, chat, &waE2E.Message{
		StickerMessage: &waE2E.StickerMessage{
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			Mimetype:      proto.String("image/webp"),
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
		},
	})
}

// author of a referenced message, as whatsmeow expects it for reactions
func (c *Client) refSender(ref event.MessageRef) (types.JID, error) {
	switch {
	case ref.FromMe:
		return c.ownJID(), nil
	case ref.Participant != "":
		return parseJID(ref.Participant)
	default:
		return parseJID(ref.Chat)
	}
}

func (c *Client) SendReaction(ctx context.Context, ref event.MessageRef, emoji string) error {
	chat, err := parseJID(ref.Chat)
	if err != nil {
		return err
	}
	sender, err := c.refSender(ref)
	if err != nil {
		return err
	}
	return c.send(ctx, ref.Chat, c.WA.BuildReaction(chat, sender, ref.ID, emoji))
}

func (c *Client) DeleteMessage(ctx context.Context, ref event.MessageRef) error {
	chat, err := parseJID(ref.Chat)
	if err != nil {
		return err
	}
	// own messages are revoked with an empty sender, other participants' as a group admin
	sender := types.EmptyJID
	if !ref.FromMe && ref.Participant != "" {
		sender, err = parseJID(ref.Participant)
		if err != nil {
			return err
		}
	}
	return c.send(ctx, ref.Chat, c.WA.BuildRevoke(chat, sender, ref.ID))
}

func (c *Client) ResolveProfileImage(ctx context.Context, ident string, tier engine.ProfileTier) (string, error) {
	jid, err := parseJID(ident)
	if err != nil {
		return "", err
	}
	info, err := c.WA.GetProfilePictureInfo(jid, &whatsmeow.GetProfilePictureParams{
		Preview: tier == engine.ProfileTierDisplay,
	})
	if err != nil {
		return "", err
	}
	if info == nil || info.URL == "" {
		return "", fmt.Errorf("no %s profile picture for %s", tier, ident)
	}
	return info.URL, nil
}

func (c *Client) AcceptGroupInvite(ctx context.Context, code string) (string, error) {
	jid, err := c.WA.JoinGroupWithLink(code)
	if err != nil {
		return "", err
	}
	return jid.String(), nil
}

func quotedPayload(quoted *event.QuotedMessage) *waE2E.Message {
	if quoted == nil {
		return nil
	}
	msg, _ := quoted.Payload.(*waE2E.Message)
	return msg
}

// ExtractViewOnce downloads the media inside a quoted view-once wrapper. A plain quoted image or video is accepted as well.
func (c *Client) ExtractViewOnce(ctx context.Context, quoted *event.QuotedMessage) (*engine.ViewOnceMedia, error) {
	inner := unwrapViewOnce(quotedPayload(quoted))
	if inner == nil {
		return nil, nil
	}
	if img := inner.GetImageMessage(); img != nil {
		data, err := c.WA.Download(img)
		if err != nil {
			return nil, fmt.Errorf("downloading view-once image: %w", err)
		}
		return &engine.ViewOnceMedia{Type: engine.MediaImage, Data: data, Caption: img.GetCaption()}, nil
	}
	if vid := inner.GetVideoMessage(); vid != nil {
		data, err := c.WA.Download(vid)
		if err != nil {
			return nil, fmt.Errorf("downloading view-once video: %w", err)
		}
		return &engine.ViewOnceMedia{Type: engine.MediaVideo, Data: data, Caption: vid.GetCaption()}, nil
	}
	return nil, nil
}

func (c *Client) DownloadImage(ctx context.Context, quoted *event.QuotedMessage) ([]byte, error) {
	img := unwrapViewOnce(quotedPayload(quoted)).GetImageMessage()
	if img == nil {
		return nil, errors.New("quoted message is not an image")
	}
	return c.WA.Download(img)
}

func (c *Client) ConvertImageToSticker(ctx context.Context, img []byte) ([]byte, error) {
	return media.ConvertImageToSticker(ctx, img)
}
