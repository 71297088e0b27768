package characterservice

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/ErikKalkoken/go-set"
	"github.com/antihax/goesi"
	"github.com/antihax/goesi/esi"
	esioptional "github.com/antihax/goesi/optional"

	"github.com/staropera/aa-memberaudit/internal/app"
	"github.com/staropera/aa-memberaudit/internal/app/storage"
	"github.com/staropera/aa-memberaudit/internal/taskqueue"
	"github.com/staropera/aa-memberaudit/internal/xslices"
)

// maximum header objects returned per page by the mail endpoint
const maxMailHeadersPerPage = 50

func (s *CharacterService) GetMail(ctx context.Context, characterID, mailID int32) (*app.CharacterMail, error) {
	return s.st.GetCharacterMail(ctx, characterID, mailID)
}

// esiMailPayload combines the three mail resources into one content hash unit.
type esiMailPayload struct {
	Lists   []esi.GetCharactersCharacterIdMailLists200Ok
	Labels  esi.GetCharactersCharacterIdMailLabelsOk
	Headers []esi.GetCharactersCharacterIdMail200Ok
}

// updateMailsESI updates the mailing lists, labels and mail headers of a
// character from ESI and reports whether they have changed. Mail bodies are
// not fetched inline: a follow-up task is enqueued for every stored mail
// that has no body yet. Bodies still missing from an earlier pass are
// enqueued again even when the headers are unchanged.
func (s *CharacterService) updateMailsESI(ctx context.Context, arg app.CharacterUpdateSectionParams) (bool, error) {
	if arg.Section != app.SectionMails {
		return false, fmt.Errorf("wrong section for update %s: %w", arg.Section, app.ErrInvalid)
	}
	maxMails := arg.MaxMails
	if maxMails == 0 {
		maxMails = s.maxMails
	}
	changed, err := s.updateSectionIfChanged(
		ctx, arg,
		func(ctx context.Context, characterID int32) (any, error) {
			lists, _, err := s.esiClient.ESI.MailApi.GetCharactersCharacterIdMailLists(ctx, characterID, nil)
			if err != nil {
				return nil, err
			}
			labels, _, err := s.esiClient.ESI.MailApi.GetCharactersCharacterIdMailLabels(ctx, characterID, nil)
			if err != nil {
				return nil, err
			}
			headers, err := s.fetchMailHeadersESI(ctx, characterID, maxMails)
			if err != nil {
				return nil, err
			}
			slog.Debug("Received mail from ESI", "characterID", characterID,
				"lists", len(lists), "labels", len(labels.Labels), "headers", len(headers))
			return esiMailPayload{Lists: lists, Labels: labels, Headers: headers}, nil
		},
		func(ctx context.Context, characterID int32, data any) error {
			payload := data.(esiMailPayload)
			if err := s.storeMailLists(ctx, characterID, payload.Lists); err != nil {
				return err
			}
			knownLabelIDs, err := s.storeMailLabels(ctx, characterID, payload.Labels)
			if err != nil {
				return err
			}
			return s.storeMailHeaders(ctx, characterID, payload.Headers, knownLabelIDs)
		})
	if err != nil {
		return false, err
	}
	if err := s.enqueueMailBodyUpdates(ctx, arg.CharacterID); err != nil {
		return false, err
	}
	return changed, nil
}

func (s *CharacterService) storeMailLists(ctx context.Context, characterID int32, lists []esi.GetCharactersCharacterIdMailLists200Ok) error {
	for _, o := range lists {
		_, err := s.st.GetOrCreateEveEntity(ctx, storage.CreateEveEntityParams{
			ID:       o.MailingListId,
			Name:     o.Name,
			Category: app.EveEntityMailList,
		})
		if err != nil {
			return err
		}
		err = s.st.UpdateOrCreateCharacterMailList(ctx, storage.UpdateOrCreateCharacterMailListParams{
			CharacterID: characterID,
			ListID:      o.MailingListId,
			Name:        o.Name,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *CharacterService) storeMailLabels(ctx context.Context, characterID int32, labels esi.GetCharactersCharacterIdMailLabelsOk) (set.Set[int32], error) {
	var knownIDs set.Set[int32]
	for _, o := range labels.Labels {
		_, err := s.st.UpdateOrCreateCharacterMailLabel(ctx, storage.UpdateOrCreateCharacterMailLabelParams{
			CharacterID: characterID,
			LabelID:     o.LabelId,
			Name:        o.Name,
			Color:       o.Color,
			UnreadCount: int(o.UnreadCount),
		})
		if err != nil {
			return knownIDs, err
		}
		knownIDs.Add(o.LabelId)
	}
	return knownIDs, nil
}

func (s *CharacterService) storeMailHeaders(ctx context.Context, characterID int32, headers []esi.GetCharactersCharacterIdMail200Ok, knownLabelIDs set.Set[int32]) error {
	var entityIDs set.Set[int32]
	for _, h := range headers {
		entityIDs.Add(h.From)
		for _, r := range h.Recipients {
			entityIDs.Add(r.RecipientId)
		}
	}
	if _, err := s.eus.AddMissingEntities(ctx, entityIDs); err != nil {
		return err
	}
	for _, h := range headers {
		labelIDs := make([]int32, 0, len(h.Labels))
		for _, id := range h.Labels {
			if !knownLabelIDs.Contains(id) {
				slog.Warn("Mail references unknown label", "characterID", characterID, "mailID", h.MailId, "labelID", id)
				continue
			}
			labelIDs = append(labelIDs, id)
		}
		recipientIDs := xslices.Map(h.Recipients, func(x esi.GetCharactersCharacterIdMailRecipient) int32 {
			return x.RecipientId
		})
		err := s.st.UpdateOrCreateCharacterMail(ctx, storage.UpdateOrCreateCharacterMailParams{
			CharacterID:  characterID,
			MailID:       h.MailId,
			FromID:       h.From,
			Subject:      h.Subject,
			Timestamp:    h.Timestamp,
			IsRead:       h.IsRead,
			RecipientIDs: recipientIDs,
			LabelIDs:     labelIDs,
		})
		if err != nil {
			return err
		}
	}
	slog.Info("Stored mail headers", "characterID", characterID, "count", len(headers))
	return nil
}

// fetchMailHeadersESI fetches and returns mail headers for a character from
// ESI, paginating backward from the newest mail with the last_mail_id
// cursor. The headers are returned in descending order by mail ID. It will
// return at most maxMails plus one page of headers.
func (s *CharacterService) fetchMailHeadersESI(ctx context.Context, characterID int32, maxMails int) ([]esi.GetCharactersCharacterIdMail200Ok, error) {
	mails := make([]esi.GetCharactersCharacterIdMail200Ok, 0)
	var lastMailID int32
	for {
		var opts *esi.GetCharactersCharacterIdMailOpts
		if lastMailID > 0 {
			opts = &esi.GetCharactersCharacterIdMailOpts{LastMailId: esioptional.NewInt32(lastMailID)}
		}
		oo, _, err := s.esiClient.ESI.MailApi.GetCharactersCharacterIdMail(ctx, characterID, opts)
		if err != nil {
			return nil, err
		}
		mails = slices.Concat(mails, oo)
		isLimitExceeded := maxMails != 0 && len(mails)+maxMailHeadersPerPage > maxMails
		if len(oo) < maxMailHeadersPerPage || isLimitExceeded {
			break
		}
		lastMailID = slices.Min(xslices.Map(oo, func(x esi.GetCharactersCharacterIdMail200Ok) int32 {
			return x.MailId
		}))
	}
	slices.SortFunc(mails, func(a, b esi.GetCharactersCharacterIdMail200Ok) int {
		return cmp.Compare(b.MailId, a.MailId)
	})
	return mails, nil
}

// enqueueMailBodyUpdates submits one body fetch task per stored mail
// without a body.
func (s *CharacterService) enqueueMailBodyUpdates(ctx context.Context, characterID int32) error {
	ids, err := s.st.ListCharacterMailIDsNoBody(ctx, characterID)
	if err != nil {
		return err
	}
	for _, mailID := range ids {
		s.queue.Submit(taskqueue.Task{
			Name:     fmt.Sprintf("update-mail-body-%d-%d", characterID, mailID),
			Priority: taskqueue.PriorityDefault,
			Run: func(ctx context.Context) error {
				return s.updateMailBodyESI(ctx, characterID, mailID)
			},
		})
	}
	if len(ids) > 0 {
		slog.Info("Enqueued mail body updates", "characterID", characterID, "count", len(ids))
	}
	return nil
}

// updateMailBodyESI fetches and stores the body of one mail.
func (s *CharacterService) updateMailBodyESI(ctx context.Context, characterID, mailID int32) error {
	_, err, _ := s.sfg.Do(fmt.Sprintf("update-mail-body-%d-%d", characterID, mailID), func() (any, error) {
		if ctx.Value(goesi.ContextAccessToken) == nil {
			token, err := s.GetValidCharacterToken(ctx, characterID)
			if err != nil {
				return nil, err
			}
			ctx = context.WithValue(ctx, goesi.ContextAccessToken, token.AccessToken)
		}
		mail, _, err := s.esiClient.ESI.MailApi.GetCharactersCharacterIdMailMailId(ctx, characterID, mailID, nil)
		if err != nil {
			return nil, err
		}
		if err := s.st.UpdateCharacterMailBody(ctx, characterID, mailID, mail.Body); err != nil {
			return nil, err
		}
		slog.Debug("Mail body updated", "characterID", characterID, "mailID", mailID)
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("update body for mail %d of character %d: %w", mailID, characterID, err)
	}
	return nil
}
