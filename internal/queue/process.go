package queue

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/hunter-local/newsgraph/internal/util"
	"github.com/hunter-local/newsgraph/pkg/logger"
	"github.com/hunter-local/newsgraph/pkg/store"
	"github.com/hunter-local/newsgraph/pkg/store/articles"
	"github.com/hunter-local/newsgraph/pkg/store/contentqueue"
	"github.com/hunter-local/newsgraph/pkg/store/ledger"
	"github.com/hunter-local/newsgraph/pkg/store/mentions"
)

// creditsForMention is the billing rate per mention type.
func creditsForMention(mentionType string) int64 {
	if mentionType == "featured" {
		return 2
	}
	return 1
}

// ProcessGenerationMessage consumes a {content_id} message: the queue item
// moves pending → processing, a draft article is created from its content,
// and the item finishes as done. Any failure moves it to failed so it can be
// re-queued later.
func ProcessGenerationMessage(ctx context.Context, db, dbAdmin *pgxpool.Pool, body string) error {
	var payload struct {
		ContentID int64 `json:"content_id"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return eris.Wrap(err, "queue: decode generation message")
	}
	if payload.ContentID == 0 {
		return eris.New("queue: generation message missing content_id")
	}

	queueStore := contentqueue.New(db)
	articleStore := articles.New(db, dbAdmin)

	item, err := queueStore.UpdateStatus(ctx, payload.ContentID, contentqueue.StatusProcessing, nil)
	if err != nil {
		return eris.Wrapf(err, "queue: claim content %d", payload.ContentID)
	}

	article, err := util.RetryWithContext(ctx, 3, func(ctx context.Context) (*articles.Article, error) {
		return articleStore.Create(ctx, articles.CreateArticleParams{
			Title:          item.Title,
			Content:        item.Content,
			RelevanceScore: item.RelevanceScore,
			SourceURL:      item.SourceURL,
			SourceTitle:    item.Title,
		})
	})
	if err != nil {
		if _, failErr := queueStore.UpdateStatus(ctx, item.ID, contentqueue.StatusFailed, nil); failErr != nil {
			logger.Error("Failed to mark content item failed", "content_id", item.ID, "err", failErr)
		}
		return eris.Wrapf(err, "queue: create article from content %d", item.ID)
	}

	if _, err := queueStore.UpdateStatus(ctx, item.ID, contentqueue.StatusDone, nil); err != nil {
		return eris.Wrapf(err, "queue: finish content %d", item.ID)
	}

	logger.Info("Draft article created from queue item",
		"content_id", item.ID, "article_id", article.ID, "word_count", article.WordCount)
	return nil
}

// ProcessMentionsMessage consumes an {article_id} message and bills every
// verified, not-yet-charged mention on the article. Each mention debits its
// partner and is then marked charged. A partial debit (balance moved, audit
// row missing) is logged for reconciliation but still counts as charged,
// because the partner's balance did move.
func ProcessMentionsMessage(ctx context.Context, db, dbAdmin *pgxpool.Pool, body string) error {
	var payload struct {
		ArticleID int64 `json:"article_id"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return eris.Wrap(err, "queue: decode mentions message")
	}
	if payload.ArticleID == 0 {
		return eris.New("queue: mentions message missing article_id")
	}

	mentionStore := mentions.New(db)
	ledgerStore := ledger.New(dbAdmin)

	uncharged, err := mentionStore.ListUncharged(ctx, payload.ArticleID)
	if err != nil {
		return eris.Wrapf(err, "queue: uncharged mentions for article %d", payload.ArticleID)
	}
	if len(uncharged) == 0 {
		logger.Info("No uncharged mentions", "article_id", payload.ArticleID)
		return nil
	}

	article, err := articles.New(db, dbAdmin).GetByID(ctx, payload.ArticleID)
	if err != nil {
		return eris.Wrapf(err, "queue: article %d", payload.ArticleID)
	}

	for _, mention := range uncharged {
		credits := creditsForMention(mention.MentionType)

		_, err := ledgerStore.Debit(ctx, mention.BusinessPartnerID, credits,
			"mention in article: "+article.Title)
		if err != nil {
			var partial *store.PartialDebitError
			switch {
			case eris.As(err, &partial):
				logger.Error("Debit applied but usage log append failed, reconcile manually",
					"partner_id", mention.BusinessPartnerID, "mention_id", mention.ID,
					"amount", partial.Amount, "err", partial.Err)
			case eris.Is(err, store.ErrInsufficientCredits):
				logger.Warn("Partner out of credits, mention left uncharged",
					"partner_id", mention.BusinessPartnerID, "mention_id", mention.ID)
				continue
			default:
				return eris.Wrapf(err, "queue: debit partner %d for mention %d",
					mention.BusinessPartnerID, mention.ID)
			}
		}

		if err := mentionStore.MarkCharged(ctx, mention.ID, credits); err != nil {
			return eris.Wrapf(err, "queue: mark mention %d charged", mention.ID)
		}
		logger.Info("Mention charged",
			"mention_id", mention.ID, "partner_id", mention.BusinessPartnerID, "credits", credits)
	}

	return nil
}
