package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexID 兼容后端返回的数字 id、数字字符串 id 以及 null。
// 无法解析时记为 0，由调用方按“不可用 id”处理。
type FlexID int64

func (id *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			*id = 0
			return nil
		}
		*id = FlexID(n)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		*id = 0
		return nil
	}
	if f != float64(int64(f)) {
		*id = 0
		return nil
	}
	*id = FlexID(int64(f))
	return nil
}

// Valid 表示 id 为可用的正整数。
func (id FlexID) Valid() bool { return id > 0 }

func (id FlexID) Int64() int64 { return int64(id) }

// FlexInt 兼容数字与数字字符串形式的金额/数量字段。
type FlexInt int64

func (n *FlexInt) UnmarshalJSON(b []byte) error {
	var id FlexID
	if err := id.UnmarshalJSON(b); err != nil {
		return err
	}
	*n = FlexInt(id)
	return nil
}
