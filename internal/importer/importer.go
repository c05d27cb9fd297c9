package importer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"voltshop_back_end/internal/cache"
	"voltshop_back_end/internal/catalog"
	"voltshop_back_end/internal/database"
	"voltshop_back_end/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const insertBatchSize = 50

var (
	// ErrFetch couvre le téléchargement et l'analyse du flux (502 côté HTTP)
	ErrFetch   = errors.New("flux fournisseur indisponible")
	ErrRunning = errors.New("un import est déjà en cours")

	minPrice = decimal.NewFromInt(1)
)

// Archiver conserve le flux brut, retourne la clé de l'objet
type Archiver interface {
	ArchiveFeed(ctx context.Context, data []byte, at time.Time) (string, error)
}

// Indexer répercute le catalogue dans le moteur de recherche
type Indexer interface {
	IndexProducts(ctx context.Context, products []models.Product) error
	DeleteProducts(ctx context.Context, ids []uuid.UUID) error
}

type Result struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Deleted  int `json:"deleted"`
	Skipped  int `json:"skipped"`
	Errors   int `json:"errors"`
}

type Importer struct {
	store    database.ProductStore
	feedURL  string
	client   *http.Client
	archiver Archiver
	indexer  Indexer
	cache    *cache.Cache
	catalog  *catalog.Store
	running  sync.Mutex
	now      func() time.Time
}

type Options struct {
	FeedURL  string
	Timeout  time.Duration
	Archiver Archiver
	Indexer  Indexer
	Cache    *cache.Cache
	Catalog  *catalog.Store
}

func New(store database.ProductStore, opts Options) *Importer {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Importer{
		store:    store,
		feedURL:  opts.FeedURL,
		client:   &http.Client{Timeout: timeout},
		archiver: opts.Archiver,
		indexer:  opts.Indexer,
		cache:    opts.Cache,
		catalog:  opts.Catalog,
		now:      time.Now,
	}
}

// Run télécharge le flux et réconcilie la table produits. Un ImportLog est toujours écrit.
func (im *Importer) Run(ctx context.Context) (Result, error) {
	if !im.running.TryLock() {
		return Result{}, ErrRunning
	}
	defer im.running.Unlock()

	started := im.now()
	entry := models.ImportLog{ID: uuid.New(), CreatedAt: started}
	log.Printf("📦 Import du flux fournisseur démarré (%s)", im.feedURL)

	data, err := fetchFeed(ctx, im.client, im.feedURL)
	if err != nil {
		return im.fail(ctx, entry, err)
	}

	if im.archiver != nil {
		key, err := im.archiver.ArchiveFeed(ctx, data, started)
		if err != nil {
			log.Printf("⚠️ Archivage du flux impossible: %v", err)
		} else {
			entry.FeedObject = key
		}
	}

	offers, err := parseFeed(data)
	if err != nil {
		return im.fail(ctx, entry, err)
	}

	res, err := im.reconcile(ctx, offers)
	entry.Inserted, entry.Updated, entry.Deleted = res.Inserted, res.Updated, res.Deleted
	entry.Skipped, entry.Errors = res.Skipped, res.Errors
	entry.Success = err == nil
	if err != nil {
		entry.ErrorMessage = err.Error()
	}
	im.writeLog(ctx, entry)

	if err != nil {
		return res, err
	}
	log.Printf("✅ Import terminé inserted=%d updated=%d deleted=%d skipped=%d errors=%d (%s)",
		res.Inserted, res.Updated, res.Deleted, res.Skipped, res.Errors, im.now().Sub(started).Round(time.Millisecond))
	return res, nil
}

func (im *Importer) fail(ctx context.Context, entry models.ImportLog, err error) (Result, error) {
	log.Printf("❌ Import interrompu: %v", err)
	entry.Success = false
	entry.ErrorMessage = err.Error()
	im.writeLog(ctx, entry)
	return Result{}, fmt.Errorf("%w: %v", ErrFetch, err)
}

func (im *Importer) writeLog(ctx context.Context, entry models.ImportLog) {
	if err := im.store.InsertImportLog(ctx, entry); err != nil {
		log.Printf("⚠️ Erreur écriture journal d'import: %v", err)
	}
}

type offerState int

const (
	offerEligible offerState = iota
	// offerOutOfStock : offre complète mais stock ≤ 0, utilisable seulement pour un produit connu
	offerOutOfStock
	offerIneligible
)

// toProduct applique le mapping catégorie, la normalisation et les filtres d'éligibilité
func toProduct(o ymlOffer) (models.Product, offerState) {
	externalID := strings.TrimSpace(o.ID)
	if externalID == "" {
		return models.Product{}, offerIneligible
	}
	categoryID, ok := MapCategory(o.CategoryID)
	if !ok {
		return models.Product{}, offerIneligible
	}

	var images []string
	for _, pic := range o.Pictures {
		if pic = strings.TrimSpace(pic); pic != "" {
			images = append(images, pic)
		}
	}
	if len(images) == 0 {
		return models.Product{}, offerIneligible
	}

	price, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(o.Price), ",", "."))
	if err != nil || price.LessThan(minPrice) {
		return models.Product{}, offerIneligible
	}

	state := offerEligible
	stock := o.stock()
	if stock <= 0 {
		stock = 0
		state = offerOutOfStock
	}

	return models.Product{
		ID:              models.ProductUUID(externalID),
		ExternalID:      &externalID,
		Name:            strings.TrimSpace(o.Name),
		Description:     strings.TrimSpace(o.Description),
		Price:           price,
		Quantity:        stock,
		Brand:           strings.TrimSpace(o.Vendor),
		CategoryID:      categoryID,
		ImageURL:        images[0],
		ImageURLs:       images,
		VendorCode:      strings.TrimSpace(o.VendorCode),
		Characteristics: normalizeCharacteristics(o.Params),
	}, state
}

func (im *Importer) reconcile(ctx context.Context, offers []ymlOffer) (Result, error) {
	var res Result

	existing, err := im.store.ListExternalIDs(ctx)
	if err != nil {
		return res, fmt.Errorf("lecture des produits existants: %w", err)
	}

	// la suppression se fait sur les identifiants du flux, éligibles ou non
	feedIDs := make(map[string]bool, len(offers))
	seen := make(map[string]bool, len(offers))
	var toInsert, toUpdate []models.Product
	for _, offer := range offers {
		if ext := strings.TrimSpace(offer.ID); ext != "" {
			feedIDs[ext] = true
		}
		p, state := toProduct(offer)
		if state == offerIneligible {
			res.Skipped++
			continue
		}
		ext := *p.ExternalID
		id, known := existing[ext]
		if seen[ext] || (state == offerOutOfStock && !known) {
			res.Skipped++
			continue
		}
		seen[ext] = true
		if known {
			p.ID = id
			toUpdate = append(toUpdate, p)
		} else {
			toInsert = append(toInsert, p)
		}
	}

	var upserted []models.Product
	for start := 0; start < len(toInsert); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(toInsert) {
			end = len(toInsert)
		}
		batch := toInsert[start:end]
		if err := im.store.InsertProducts(ctx, batch); err != nil {
			log.Printf("❌ Lot de %d produits non inséré: %v", len(batch), err)
			res.Errors += len(batch)
			continue
		}
		res.Inserted += len(batch)
		upserted = append(upserted, batch...)
	}

	for _, p := range toUpdate {
		if err := im.store.UpdateProduct(ctx, p); err != nil {
			log.Printf("⚠️ Produit %s (externe %s) non mis à jour: %v", p.ID, *p.ExternalID, err)
			res.Errors++
			continue
		}
		res.Updated++
		upserted = append(upserted, p)
	}

	var stale []uuid.UUID
	for ext, id := range existing {
		if !feedIDs[ext] {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		if err := im.store.DeleteProducts(ctx, stale); err != nil {
			log.Printf("❌ Suppression de %d produits absents du flux impossible: %v", len(stale), err)
			res.Errors += len(stale)
			stale = nil
		} else {
			res.Deleted = len(stale)
		}
	}

	im.propagate(ctx, upserted, stale)
	return res, nil
}

// propagate met à jour l'index, le cache et le catalogue, sans faire échouer l'import
func (im *Importer) propagate(ctx context.Context, upserted []models.Product, deleted []uuid.UUID) {
	if im.indexer != nil {
		if len(upserted) > 0 {
			if err := im.indexer.IndexProducts(ctx, upserted); err != nil {
				log.Printf("⚠️ Indexation Elasticsearch partielle: %v", err)
			}
		}
		if len(deleted) > 0 {
			if err := im.indexer.DeleteProducts(ctx, deleted); err != nil {
				log.Printf("⚠️ Suppression Elasticsearch partielle: %v", err)
			}
		}
	}

	ids := make([]string, 0, len(upserted)+len(deleted))
	for _, p := range upserted {
		ids = append(ids, p.ID.String())
	}
	for _, id := range deleted {
		ids = append(ids, id.String())
	}
	im.cache.InvalidateProducts(ctx, ids...)

	if im.catalog != nil {
		im.catalog.Reset()
	}
}
