package importer

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

const maxFeedSize = 64 << 20

// Format YML (yml_catalog/shop/offers/offer)
type ymlCatalog struct {
	XMLName xml.Name `xml:"yml_catalog"`
	Date    string   `xml:"date,attr"`
	Shop    ymlShop  `xml:"shop"`
}

type ymlShop struct {
	Name   string     `xml:"name"`
	Offers []ymlOffer `xml:"offers>offer"`
}

type ymlOffer struct {
	ID              string     `xml:"id,attr"`
	Available       string     `xml:"available,attr"`
	Name            string     `xml:"name"`
	Description     string     `xml:"description"`
	Price           string     `xml:"price"`
	CategoryID      string     `xml:"categoryId"`
	Pictures        []string   `xml:"picture"`
	Vendor          string     `xml:"vendor"`
	VendorCode      string     `xml:"vendorCode"`
	QuantityInStock string     `xml:"quantity_in_stock"`
	StockQuantity   string     `xml:"stock_quantity"`
	Params          []ymlParam `xml:"param"`
}

type ymlParam struct {
	Name  string `xml:"name,attr"`
	Unit  string `xml:"unit,attr"`
	Value string `xml:",chardata"`
}

// stock lit le stock déclaré, à défaut l'attribut available
func (o ymlOffer) stock() int {
	for _, raw := range []string{o.QuantityInStock, o.StockQuantity} {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64); err == nil {
			return int(f)
		}
		return 0
	}
	if strings.EqualFold(strings.TrimSpace(o.Available), "true") {
		return 1
	}
	return 0
}

var errEmptyFeed = errors.New("flux sans offres")

func parseFeed(data []byte) ([]ymlOffer, error) {
	var catalog ymlCatalog
	decoder := xml.NewDecoder(bytes.NewReader(data))
	// Les flux fournisseurs déclarent souvent windows-1251 mais sont servis en UTF-8
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	if err := decoder.Decode(&catalog); err != nil {
		return nil, fmt.Errorf("analyse XML: %w", err)
	}
	if len(catalog.Shop.Offers) == 0 {
		return nil, errEmptyFeed
	}
	return catalog.Shop.Offers, nil
}

func fetchFeed(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, errors.New("FEED_URL non configuré")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("téléchargement du flux: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("téléchargement du flux: statut %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedSize))
	if err != nil {
		return nil, fmt.Errorf("lecture du flux: %w", err)
	}
	return data, nil
}
