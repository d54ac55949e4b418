package remote

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/pcv/internal/pointcloud"
	"github.com/banshee-data/pcv/internal/viewer"
)

// CloudInfo is a cloud as listed by the server.
type CloudInfo struct {
	ID       string
	Name     string
	Viewport int
	Points   int
	Path     string
	Spaces   [][3]string
}

// Client calls a remote viewer.
type Client struct {
	conn *grpc.ClientConn
}

// Dial creates a plaintext client for addr.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// CloseConn closes the underlying connection.
func (c *Client) CloseConn() error {
	return c.conn.Close()
}

// ListClouds lists the clouds the viewer holds.
func (c *Client) ListClouds(ctx context.Context) ([]CloudInfo, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, methodListClouds, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}

	var infos []CloudInfo
	for _, v := range out.GetFields()["clouds"].GetListValue().GetValues() {
		f := v.GetStructValue().GetFields()
		info := CloudInfo{
			ID:       f["id"].GetStringValue(),
			Name:     f["name"].GetStringValue(),
			Viewport: int(f["viewport"].GetNumberValue()),
			Points:   int(f["points"].GetNumberValue()),
			Path:     f["path"].GetStringValue(),
		}
		for _, s := range f["spaces"].GetListValue().GetValues() {
			axes := s.GetListValue().GetValues()
			if len(axes) != 3 {
				continue
			}
			info.Spaces = append(info.Spaces, [3]string{axes[0].GetStringValue(), axes[1].GetStringValue(), axes[2].GetStringValue()})
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Pick asks the viewer to resolve a coordinate.
func (c *Client) Pick(ctx context.Context, a, b, d float32) (viewer.PickResult, bool, error) {
	in, err := structpb.NewStruct(map[string]interface{}{"a": float64(a), "b": float64(b), "c": float64(d)})
	if err != nil {
		return viewer.PickResult{}, false, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, methodPick, in, out); err != nil {
		return viewer.PickResult{}, false, err
	}

	f := out.GetFields()
	res := viewer.PickResult{
		Cloud:   f["cloud"].GetStringValue(),
		CloudID: pointcloud.CloudID(f["cloud_id"].GetStringValue()),
		Space:   f["space"].GetStringValue(),
		Index:   int(f["index"].GetNumberValue()),
	}
	for _, ch := range f["children"].GetListValue().GetValues() {
		res.Children = append(res.Children, ch.GetStringValue())
	}
	return res, f["found"].GetBoolValue(), nil
}

// Key sends a key press and returns the viewer's message.
func (c *Client) Key(ctx context.Context, key string) (string, error) {
	in, err := structpb.NewStruct(map[string]interface{}{"key": key})
	if err != nil {
		return "", err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, methodKey, in, out); err != nil {
		return "", err
	}
	return out.GetFields()["message"].GetStringValue(), nil
}

// Close ends the remote viewer session.
func (c *Client) Close(ctx context.Context) error {
	return c.conn.Invoke(ctx, methodClose, &emptypb.Empty{}, &emptypb.Empty{})
}
