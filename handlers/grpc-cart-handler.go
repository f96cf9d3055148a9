package handlers

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"mizora-service/internal/cart"
	"mizora-service/pkg/logkey"
)

const GetCartDetailsMethod = "/mizora.cart.v1.CartService/GetCartDetails"

// CartDetailsServer serves a user's priced cart to internal callers. The
// request carries the user id, the response mirrors the HTTP cart view.
type CartDetailsServer interface {
	GetCartDetails(ctx context.Context, userID *wrapperspb.StringValue) (*structpb.Struct, error)
}

var CartServiceDesc = grpc.ServiceDesc{
	ServiceName: "mizora.cart.v1.CartService",
	HandlerType: (*CartDetailsServer)(nil),
	Methods: []grpc.MethodDesc{{
		MethodName: "GetCartDetails",
		Handler:    getCartDetailsHandler,
	}},
	Streams:  []grpc.StreamDesc{},
	Metadata: "mizora/cart/v1/cart.proto",
}

func getCartDetailsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CartDetailsServer).GetCartDetails(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetCartDetailsMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CartDetailsServer).GetCartDetails(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

type cartItemService struct {
	cartConf cart.Conf
}

func NewCartItemServiceHandler(cartConf cart.Conf) CartDetailsServer {
	return &cartItemService{cartConf: cartConf}
}

func (s *cartItemService) GetCartDetails(ctx context.Context, request *wrapperspb.StringValue) (*structpb.Struct, error) {
	userID := request.GetValue()
	if userID == "" {
		return nil, status.Error(codes.InvalidArgument, "user id is required")
	}

	cartResponse, err := s.cartConf.GetCart(ctx, userID)
	if err != nil {
		slog.Error("grpc cart details failed", slog.String(logkey.UserID, userID), slog.String(logkey.ERROR, err.Error()))
		return nil, status.Errorf(codes.Internal, "failed to get cart details: %v", err)
	}

	items := make([]interface{}, 0, len(cartResponse.Items))
	for _, l := range cartResponse.Items {
		items = append(items, map[string]interface{}{
			"productId":    l.ProductID,
			"name":         l.Product.Name,
			"quantity":     l.Quantity,
			"selectedSize": l.SelectedSize,
			"unitPrice":    l.UnitPrice,
			"lineTotal":    l.LineTotal,
		})
	}
	out, err := structpb.NewStruct(map[string]interface{}{
		"userId":    userID,
		"items":     items,
		"subtotal":  cartResponse.Subtotal,
		"itemCount": cartResponse.ItemCount,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode cart details: %v", err)
	}
	return out, nil
}
