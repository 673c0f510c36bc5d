package api

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client talks to a daemon's HangoutService over its unix socket.
type Client struct {
	conn *grpc.ClientConn
}

// Dial creates a client for the daemon listening on socketPath.
func Dial(socketPath string) (*Client, error) {
	conn, err := grpc.NewClient(
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	req, err := toStruct(in)
	if err != nil {
		return err
	}
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, req, resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return fromStruct(resp, out)
}

func (c *Client) IssueCommand(ctx context.Context, req IssueCommandRequest) error {
	return c.invoke(ctx, "IssueCommand", req, nil)
}

func (c *Client) OpenConversation(ctx context.Context, username string) error {
	return c.invoke(ctx, "OpenConversation", ConversationRequest{Username: username}, nil)
}

func (c *Client) CloseConversation(ctx context.Context) error {
	return c.invoke(ctx, "CloseConversation", Empty{}, nil)
}

func (c *Client) ListHangouts(ctx context.Context) (*HangoutsReply, error) {
	var out HangoutsReply
	if err := c.invoke(ctx, "ListHangouts", Empty{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListMessages(ctx context.Context, username string) (*MessagesReply, error) {
	var out MessagesReply
	if err := c.invoke(ctx, "ListMessages", ConversationRequest{Username: username}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListUnread(ctx context.Context) (*UnreadReply, error) {
	var out UnreadReply
	if err := c.invoke(ctx, "ListUnread", Empty{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetStatus(ctx context.Context) (*StatusReply, error) {
	var out StatusReply
	if err := c.invoke(ctx, "GetStatus", Empty{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WatchActions calls fn for each streamed action until ctx ends, the stream
// closes, or fn returns an error.
func (c *Client) WatchActions(ctx context.Context, prefix string, fn func(ActionMessage) error) error {
	stream, err := c.conn.NewStream(ctx, &ServiceDesc.Streams[0], "/"+ServiceName+"/WatchActions")
	if err != nil {
		return err
	}
	req, err := toStruct(WatchRequest{Prefix: prefix})
	if err != nil {
		return err
	}
	if err := stream.SendMsg(req); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}
	for {
		msg := new(structpb.Struct)
		if err := stream.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var act ActionMessage
		if err := fromStruct(msg, &act); err != nil {
			return err
		}
		if err := fn(act); err != nil {
			return err
		}
	}
}
