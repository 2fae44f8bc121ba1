// Package event 定义新帖发布通知及其编码。
//
// 事件以 google.protobuf.Struct 承载: Kafka 中使用二进制 proto 编码,
// 推送给浏览器时使用 protojson。
package event

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const TypePostPublished = "post.published"

type PostPublished struct {
	PostID         uint
	AuthorID       uint
	AuthorUsername string
	GroupSlug      string
	Preview        string
	CreatedAt      time.Time
}

// Publisher 接收新帖事件, CreatePost 成功后调用
type Publisher interface {
	PublishPost(ctx context.Context, e PostPublished) error
}

type NopPublisher struct{}

func (NopPublisher) PublishPost(context.Context, PostPublished) error { return nil }

func (e PostPublished) toStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"type":            TypePostPublished,
		"post_id":         float64(e.PostID),
		"author_id":       float64(e.AuthorID),
		"author_username": e.AuthorUsername,
		"group_slug":      e.GroupSlug,
		"preview":         e.Preview,
		"created_at":      e.CreatedAt.UTC().Format(time.RFC3339Nano),
		"url":             fmt.Sprintf("/posts/%d/", e.PostID),
	})
}

func fromStruct(s *structpb.Struct) (PostPublished, error) {
	f := s.GetFields()
	if f["type"].GetStringValue() != TypePostPublished {
		return PostPublished{}, fmt.Errorf("unexpected event type %q", f["type"].GetStringValue())
	}
	e := PostPublished{
		PostID:         uint(f["post_id"].GetNumberValue()),
		AuthorID:       uint(f["author_id"].GetNumberValue()),
		AuthorUsername: f["author_username"].GetStringValue(),
		GroupSlug:      f["group_slug"].GetStringValue(),
		Preview:        f["preview"].GetStringValue(),
	}
	if ts := f["created_at"].GetStringValue(); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return PostPublished{}, fmt.Errorf("invalid created_at: %w", err)
		}
		e.CreatedAt = t
	}
	return e, nil
}

// 浏览器端收到的 JSON 文本帧
func (e PostPublished) JSON() ([]byte, error) {
	s, err := e.toStruct()
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(s)
}

// Envelope 是跨实例投递的单位: 事件 + 接收者
type Envelope struct {
	Recipients []uint
	Payload    []byte
}

func MarshalEnvelope(env Envelope) ([]byte, error) {
	recipients := make([]interface{}, len(env.Recipients))
	for i, id := range env.Recipients {
		recipients[i] = float64(id)
	}
	s, err := structpb.NewStruct(map[string]interface{}{
		"recipients": recipients,
		"payload":    string(env.Payload),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build envelope: %w", err)
	}
	return proto.Marshal(s)
}

func UnmarshalEnvelope(data []byte) (Envelope, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return Envelope{}, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	list := s.GetFields()["recipients"].GetListValue().GetValues()
	env := Envelope{
		Recipients: make([]uint, 0, len(list)),
		Payload:    []byte(s.GetFields()["payload"].GetStringValue()),
	}
	for _, v := range list {
		env.Recipients = append(env.Recipients, uint(v.GetNumberValue()))
	}
	return env, nil
}

// 解析浏览器帧, 测试和客户端工具使用
func ParsePostPublished(data []byte) (PostPublished, error) {
	var s structpb.Struct
	if err := protojson.Unmarshal(data, &s); err != nil {
		return PostPublished{}, fmt.Errorf("failed to parse event: %w", err)
	}
	return fromStruct(&s)
}
