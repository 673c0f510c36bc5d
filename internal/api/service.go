// Package api exposes the engine to local clients over gRPC. Messages are
// google.protobuf.Struct values carrying the JSON shapes in messages.go.
package api

import (
	"context"
	"errors"
	"time"

	"github.com/matheus3301/hangouts/internal/dispatch"
	"github.com/matheus3301/hangouts/internal/hangout"
	"github.com/matheus3301/hangouts/internal/status"
	"github.com/matheus3301/hangouts/internal/store"
	"github.com/matheus3301/hangouts/internal/unread"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "hangout.v1.HangoutService"

// HangoutServer is the server API of ServiceName.
type HangoutServer interface {
	IssueCommand(context.Context, *structpb.Struct) (*structpb.Struct, error)
	OpenConversation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CloseConversation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListHangouts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListMessages(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListUnread(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WatchActions(*structpb.Struct, ActionStream) error
}

// ActionStream is the server side of WatchActions.
type ActionStream interface {
	Send(*structpb.Struct) error
	Context() context.Context
}

// ServiceDesc describes ServiceName for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*HangoutServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("IssueCommand", HangoutServer.IssueCommand),
		unary("OpenConversation", HangoutServer.OpenConversation),
		unary("CloseConversation", HangoutServer.CloseConversation),
		unary("ListHangouts", HangoutServer.ListHangouts),
		unary("ListMessages", HangoutServer.ListMessages),
		unary("ListUnread", HangoutServer.ListUnread),
		unary("GetStatus", HangoutServer.GetStatus),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchActions",
			ServerStreams: true,
			Handler: func(srv any, stream grpc.ServerStream) error {
				in := new(structpb.Struct)
				if err := stream.RecvMsg(in); err != nil {
					return err
				}
				return srv.(HangoutServer).WatchActions(in, &actionStream{stream})
			},
		},
	},
	Metadata: "hangout/v1/hangout.proto",
}

// Register registers srv on s.
func Register(s *grpc.Server, srv HangoutServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unary(name string, call func(HangoutServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(HangoutServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(HangoutServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

type actionStream struct {
	grpc.ServerStream
}

func (s *actionStream) Send(m *structpb.Struct) error {
	return s.ServerStream.SendMsg(m)
}

// Commander applies locally issued commands.
type Commander interface {
	IssueCommand(ctx context.Context, remote hangout.User, cmd hangout.Command, text string) error
	Pending() *hangout.PendingAction
}

// Conversations opens and closes conversations.
type Conversations interface {
	Open(ctx context.Context, remote string) error
	Close()
	Current() string
}

// Subscriber streams dispatched actions.
type Subscriber interface {
	Subscribe(prefix string, bufSize int) (<-chan dispatch.Action, func())
}

// Deps are the engine components the service fronts.
type Deps struct {
	Profile  string
	Store    *store.Store
	Unread   *unread.Tracker
	Pipeline Commander
	View     Conversations
	Machine  *status.Machine
	Actions  Subscriber
	Logger   *zap.Logger
}

// Service implements HangoutServer.
type Service struct {
	d         Deps
	startedAt time.Time
}

// NewService creates the service.
func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Service{d: d, startedAt: time.Now()}
}

func (s *Service) IssueCommand(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req IssueCommandRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, grpcstatus.Error(codes.InvalidArgument, err.Error())
	}
	if req.Username == "" {
		return nil, grpcstatus.Error(codes.InvalidArgument, "username is required")
	}
	if err := hangout.ValidateUsername(req.Username); err != nil {
		return nil, toStatus(err)
	}
	cmd, err := hangout.ParseCommand(req.Command)
	if err != nil {
		return nil, toStatus(err)
	}
	remote := hangout.User{Username: req.Username, Email: req.Email}
	if err := s.d.Pipeline.IssueCommand(ctx, remote, cmd, req.Text); err != nil {
		return nil, toStatus(err)
	}
	return reply(Empty{})
}

func (s *Service) OpenConversation(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req ConversationRequest
	if err := fromStruct(in, &req); err != nil || req.Username == "" {
		return nil, grpcstatus.Error(codes.InvalidArgument, "username is required")
	}
	if err := hangout.ValidateUsername(req.Username); err != nil {
		return nil, toStatus(err)
	}
	if err := s.d.View.Open(ctx, req.Username); err != nil {
		return nil, toStatus(err)
	}
	return reply(Empty{})
}

func (s *Service) CloseConversation(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	s.d.View.Close()
	return reply(Empty{})
}

func (s *Service) ListHangouts(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	items, err := s.d.Store.Hangouts(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(HangoutsReply{Hangouts: orEmpty(items)})
}

func (s *Service) ListMessages(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req ConversationRequest
	if err := fromStruct(in, &req); err != nil || req.Username == "" {
		return nil, grpcstatus.Error(codes.InvalidArgument, "username is required")
	}
	if err := hangout.ValidateUsername(req.Username); err != nil {
		return nil, toStatus(err)
	}
	msgs, err := s.d.Store.Messages(ctx, req.Username)
	if err != nil {
		return nil, toStatus(err)
	}
	if msgs == nil {
		msgs = []hangout.Message{}
	}
	return reply(MessagesReply{Username: req.Username, Messages: msgs})
}

func (s *Service) ListUnread(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	items, err := s.d.Unread.List(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	n, err := s.d.Unread.Count(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(UnreadReply{Unread: orEmpty(items), Count: n})
}

func (s *Service) GetStatus(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	queued, err := s.d.Store.OfflineHangouts(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(StatusReply{
		Profile:  s.d.Profile,
		Username: s.d.Store.Owner(),
		Status:   string(s.d.Machine.Current()),
		UptimeMs: time.Since(s.startedAt).Milliseconds(),
		Open:     s.d.View.Current(),
		Pending:  s.d.Pipeline.Pending(),
		Offline:  len(queued),
	})
}

// WatchActions streams every dispatched action matching the requested prefix
// until the client goes away.
func (s *Service) WatchActions(in *structpb.Struct, stream ActionStream) error {
	var req WatchRequest
	if err := fromStruct(in, &req); err != nil {
		return grpcstatus.Error(codes.InvalidArgument, err.Error())
	}
	ch, unsub := s.d.Actions.Subscribe(req.Prefix, 256)
	defer unsub()

	ctx := stream.Context()
	for {
		select {
		case act := <-ch:
			out, err := toStruct(act)
			if err != nil {
				s.d.Logger.Warn("failed to encode action", zap.Error(err), zap.String("kind", string(act.Kind)))
				continue
			}
			if err := stream.Send(out); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func reply(v any) (*structpb.Struct, error) {
	out, err := toStruct(v)
	if err != nil {
		return nil, grpcstatus.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func orEmpty(items []hangout.Hangout) []hangout.Hangout {
	if items == nil {
		return []hangout.Hangout{}
	}
	return items
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, hangout.ErrUnknownCommand), errors.Is(err, hangout.ErrUnknownState),
		errors.Is(err, hangout.ErrInvalidUsername):
		return grpcstatus.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return grpcstatus.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return grpcstatus.Error(codes.DeadlineExceeded, err.Error())
	default:
		return grpcstatus.Error(codes.Internal, err.Error())
	}
}

var _ HangoutServer = (*Service)(nil)
