package integration

import (
	"context"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/terra-dine/terra-ordering/client"
	"github.com/terra-dine/terra-ordering/config"
	"github.com/terra-dine/terra-ordering/controllers"
	"github.com/terra-dine/terra-ordering/middleware"
	"github.com/terra-dine/terra-ordering/models"
	"github.com/terra-dine/terra-ordering/services"
	"github.com/terra-dine/terra-ordering/session"
	"github.com/terra-dine/terra-ordering/store"
	"github.com/terra-dine/terra-ordering/tests/testutil"
)

// SyncIntegrationTestSuite exercises the live status channel: backend
// broadcasts fanned out over the WebSocket hub and applied through the
// client-side synchronizer.
type SyncIntegrationTestSuite struct {
	suite.Suite
	server *httptest.Server
	db     *gorm.DB
	table  models.Table
}

func (suite *SyncIntegrationTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	os.Setenv("GO_ENV", "test")
}

func (suite *SyncIntegrationTestSuite) SetupTest() {
	suite.db = testutil.OpenTestDB(suite.T())
	suite.table = testutil.SeedStore(suite.T(), suite.db, "tbl_abc")
	config.SetDB(suite.db)

	router := gin.New()
	router.Use(middleware.ExtractSessionToken())
	api := router.Group("/api")
	{
		api.GET("/tables/lookup/:slug", controllers.LookupTable)
		api.POST("/tables/:id/occupy", controllers.OccupyTable)
		api.POST("/orders", controllers.CreateOrder)
		api.GET("/orders/:id", controllers.GetOrder)
		api.POST("/orders/:id/kot", controllers.AppendKOT)
		api.PATCH("/orders/:id/confirm-payment", controllers.ConfirmPayment)
		api.GET("/menu/public", controllers.GetPublicMenu)
	}
	router.GET("/ws/orders", controllers.HandleOrderEvents(controllers.GetHub()))

	suite.server = httptest.NewServer(router)
}

func (suite *SyncIntegrationTestSuite) TearDownTest() {
	suite.server.Close()
}

func (suite *SyncIntegrationTestSuite) wsURL() string {
	return "ws" + strings.TrimPrefix(suite.server.URL, "http")
}

// placeOrder runs the client-side flow up to a placed dine-in order
func (suite *SyncIntegrationTestSuite) placeOrder(st store.Store) *models.Order {
	ctx := context.Background()
	api := client.New(suite.server.URL)

	resolver := services.NewTableResolver(api, st)
	_, err := resolver.Resolve(ctx, "tbl_abc")
	suite.NoError(err)

	menu, err := api.FetchMenu(ctx, "store-1")
	suite.NoError(err)

	orders := services.NewOrderService(api, st)
	_, err = orders.Cart().Add(models.ServiceDineIn, menu, "Masala Dosa")
	suite.NoError(err)

	order, err := orders.PlaceOrder(ctx, models.ServiceDineIn, services.CustomerInfo{})
	suite.NoError(err)
	return order
}

// TestPushUpdatesReachTheClient drives a KOT append through the backend and
// expects the broadcast to land in the client's cached state
func (suite *SyncIntegrationTestSuite) TestPushUpdatesReachTheClient() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := store.NewMemoryStore()
	order := suite.placeOrder(st)

	api := client.New(suite.server.URL)
	sync := services.NewStatusSynchronizer(api, st, suite.wsURL(), time.Minute)

	applied := make(chan session.State, 4)
	sync.OnChange = func(state session.State) { applied <- state }
	go sync.Run(ctx)

	// Give the WebSocket subscription a moment to attach
	time.Sleep(300 * time.Millisecond)

	// The kitchen appends a batch out of band, which broadcasts orderUpdated
	token := session.Load(st).SessionToken
	_, err := api.AppendKOT(ctx, order.ID, client.AppendKOTRequest{
		SessionToken: token,
		Items:        []client.ItemRequest{{Name: "Filter Coffee", Quantity: 1}},
	})
	suite.NoError(err)

	select {
	case state := <-applied:
		ref, active := state.ActiveOrder(models.ServiceDineIn)
		suite.True(active)
		suite.Equal(order.ID, ref.ID)
	case <-time.After(3 * time.Second):
		suite.Fail("push update never reached the client")
	}
}

// TestPaymentBroadcastFreesNextCustomer verifies that a confirmed payment
// broadcasts the table release and a waiting customer sees it as AVAILABLE
func (suite *SyncIntegrationTestSuite) TestPaymentBroadcastFreesNextCustomer() {
	ctx := context.Background()

	st := store.NewMemoryStore()
	order := suite.placeOrder(st)

	api := client.New(suite.server.URL)
	orders := services.NewOrderService(api, st)

	_, err := orders.ConfirmCashPayment(ctx, models.ServiceDineIn)
	suite.NoError(err)

	// A second customer scanning now finds the table free
	second := store.NewMemoryStore()
	resolver := services.NewTableResolver(api, second)
	res, err := resolver.Resolve(ctx, "tbl_abc")
	suite.NoError(err)
	suite.Equal(services.ResolutionAdopted, res.Kind)

	// The first customer's archived state stays settled
	suite.Equal(order.ID, session.Load(st).LastPaidOrderID)
}

// TestPollFallback verifies the poll path alone keeps the status current
// when no WebSocket URL is configured
func (suite *SyncIntegrationTestSuite) TestPollFallback() {
	ctx := context.Background()

	st := store.NewMemoryStore()
	order := suite.placeOrder(st)

	// Status changes server-side without a push channel
	suite.db.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", models.StatusReady)

	api := client.New(suite.server.URL)
	guard := services.NewOrderSessionGuard(api, st)
	refreshed, _, err := guard.Refresh(ctx, models.ServiceDineIn)
	suite.NoError(err)
	suite.Equal(models.StatusReady, refreshed.Status)
}

func TestSyncIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(SyncIntegrationTestSuite))
}
