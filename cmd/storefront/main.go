// cmd/storefront/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/your-org/bookstore-storefront/internal/api"
	"github.com/your-org/bookstore-storefront/internal/cart"
	"github.com/your-org/bookstore-storefront/internal/config"
	"github.com/your-org/bookstore-storefront/internal/orders"
	"github.com/your-org/bookstore-storefront/internal/pkg/logging"
	"github.com/your-org/bookstore-storefront/internal/pkg/tokens"
	"github.com/your-org/bookstore-storefront/internal/session"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg)
	tokenStore := tokens.NewStore(cfg.Tokens.File)
	client := api.NewClient(cfg, logger, tokenStore)
	sessionStore := session.NewStore(client, tokenStore, logger)
	cartStore := cart.NewStore(client, logger)
	history := orders.NewHistory(client, logger, cfg.API.PageLimit)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "login":
		if len(os.Args) != 4 {
			log.Fatal("usage: storefront login <email> <password>")
		}
		user, err := sessionStore.Login(ctx, os.Args[2], os.Args[3])
		if err != nil {
			log.Fatalf("Login failed: %v", err)
		}
		fmt.Printf("Signed in as %s (%s)\n", user.FullName(), user.Email)

	case "logout":
		if err := sessionStore.Logout(ctx); err != nil {
			logger.WithError(err).Warn("Logout request failed, local session cleared anyway")
		}
		fmt.Println("Signed out")

	case "cart":
		mustHydrate(ctx, sessionStore)
		if err := cartStore.Load(ctx); err != nil {
			log.Fatalf("Failed to load cart: %v", err)
		}
		printCart(cartStore.Snapshot())

	case "orders":
		mustHydrate(ctx, sessionStore)
		page := 1
		if len(os.Args) > 2 {
			if n, err := strconv.Atoi(os.Args[2]); err == nil {
				page = n
			}
		}
		result, err := history.Load(ctx, page)
		if err != nil {
			log.Fatalf("Failed to load orders: %v", err)
		}
		printOrders(result)

	default:
		usage()
		os.Exit(1)
	}
}

func mustHydrate(ctx context.Context, sessionStore *session.Store) {
	if err := sessionStore.Hydrate(ctx); err != nil {
		log.Fatalf("Failed to restore session: %v", err)
	}
	if sessionStore.Current() == nil {
		log.Fatal("Not signed in. Run: storefront login <email> <password>")
	}
}

func printCart(snapshot cart.Snapshot) {
	if len(snapshot.Lines) == 0 {
		fmt.Println("Your cart is empty")
		return
	}
	for _, line := range snapshot.Lines {
		fmt.Printf("%-40s x%-3d $%8.2f\n", line.Title, line.Quantity, cart.DollarsFromCents(line.UnitPrice*int64(line.Quantity)))
	}
	fmt.Printf("\nItems:    %d\n", snapshot.TotalItems)
	fmt.Printf("Subtotal: $%.2f\n", cart.DollarsFromCents(snapshot.Subtotal))
	fmt.Printf("Shipping: $%.2f\n", cart.DollarsFromCents(snapshot.Shipping))
	fmt.Printf("Total:    $%.2f\n", cart.DollarsFromCents(snapshot.Total))
}

func printOrders(page *orders.Page) {
	if len(page.Orders) == 0 {
		fmt.Println("No orders yet")
		return
	}
	for _, order := range page.Orders {
		fmt.Printf("%s  %-12s %-10s %s  $%.2f\n",
			order.ID, order.OrderStatus, order.PaymentStatus,
			order.PaymentMethod.Label(), cart.DollarsFromCents(order.Total()))
	}
	fmt.Printf("\nPage %d of %d\n", page.Pagination.Page, page.Pagination.TotalPages)
}

func usage() {
	fmt.Println(`Bookstore storefront client

Commands:
  login <email> <password>   Sign in and store tokens
  logout                     Sign out and clear tokens
  cart                       Show the current cart
  orders [page]              Show past orders`)
}
