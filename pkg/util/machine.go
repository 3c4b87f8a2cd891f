package util

import (
	"os"
	"strings"
	"sync"

	"github.com/denisbrodbeck/machineid"
)

var (
	machineIDOnce sync.Once
	machineID     string
)

// GetMachineID 获取当前机器的唯一标识符
// 优先使用 machineid 库，失败时读取主板序列号，全部失败返回空字符串
func GetMachineID() string {
	machineIDOnce.Do(func() {
		if id, err := machineid.ID(); err == nil && id != "" {
			machineID = id
			return
		}
		if b, err := os.ReadFile("/sys/class/dmi/id/board_serial"); err == nil {
			machineID = strings.TrimSpace(string(b))
		}
	})
	return machineID
}
