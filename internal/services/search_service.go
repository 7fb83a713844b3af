package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
	"campusmart/internal/repos"
	"campusmart/internal/validate"
)

const searchLimit = 10

type SearchService struct {
	Products *repos.ProductRepo
	Listings *repos.ListingRepo
	Services *repos.ServiceRepo
	Sellers  *repos.SellerRepo
}

func NewSearchService(products *repos.ProductRepo, listings *repos.ListingRepo, services *repos.ServiceRepo, sellers *repos.SellerRepo) *SearchService {
	return &SearchService{Products: products, Listings: listings, Services: services, Sellers: sellers}
}

type SearchResults struct {
	Products []domain.Product    `json:"products"`
	Listings []domain.Listing    `json:"listings"`
	Services []domain.Service    `json:"services"`
	Sellers  []domain.Storefront `json:"sellers"`
}

// Search queries every catalogue at once.
func (s *SearchService) Search(ctx context.Context, raw string) (*SearchResults, error) {
	q, ok := validate.Q(raw)
	if !ok {
		return nil, apperr.BadRequest("q is required")
	}
	page := domain.Page{Page: 1, Limit: searchLimit}
	avail := true
	out := &SearchResults{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Products, _, err = s.Products.Search(gctx, repos.ProductFilter{Q: q, Sort: "popular"}, page)
		return
	})
	g.Go(func() (err error) {
		out.Listings, _, err = s.Listings.Search(gctx, repos.ListingFilter{Q: q, Available: &avail}, page)
		return
	})
	g.Go(func() (err error) {
		out.Services, _, err = s.Services.Search(gctx, repos.ServiceFilter{Q: q}, page)
		return
	})
	g.Go(func() (err error) {
		out.Sellers, err = s.Sellers.Search(gctx, q, searchLimit)
		if err == nil {
			for i := range out.Sellers {
				out.Sellers[i].Seller = out.Sellers[i].Seller.Public()
			}
		}
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
