package runtime

import (
	"fmt"
	"math/rand"
	"os/exec"
	"time"

	"github.com/google/uuid"

	"github.com/kaelorun/agentcore/internal/toolkit"
)

// readinessDelay is how long ContainerRuntime sleeps after "docker run"
// before assuming the peer server inside the container is ready to accept
// requests. There is no health-check retry loop; a future revision should
// poll /health instead of sleeping a fixed interval.
const readinessDelay = 5 * time.Second

// containerPortBase and containerPortSpan bound the host port range a
// ContainerRuntime picks from when mapping the container's peer-server port.
const containerPortBase = 3000
const containerPortSpan = 1000

// ContainerRuntime runs an image containing the agent peer server in a
// Docker container and proxies tool execution to it over HTTP, the same
// way RemoteRuntime talks to any other peer server.
type ContainerRuntime struct {
	*RemoteRuntime

	ContainerName string
	ImageName     string
	HostPort      int
}

// NewContainerRuntime starts image in a detached container, maps its port
// 3000 to a random host port, and returns a runtime proxying to it. The
// caller must call Close to stop and remove the container.
func NewContainerRuntime(image string, tools []toolkit.Tool) (*ContainerRuntime, error) {
	containerName := fmt.Sprintf("agentcore-%s", uuid.New().String())
	port := containerPortBase + rand.Intn(containerPortSpan)

	cmd := exec.Command("docker", "run", "-d",
		"-p", fmt.Sprintf("%d:3000", port),
		"--name", containerName,
		image,
	)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("start container: %w", err)
	}

	time.Sleep(readinessDelay)

	baseURL := fmt.Sprintf("http://localhost:%d", port)
	return &ContainerRuntime{
		RemoteRuntime: NewRemoteRuntime(baseURL, tools),
		ContainerName: containerName,
		ImageName:     image,
		HostPort:      port,
	}, nil
}

// Close stops and removes the container. Failures are swallowed: container
// teardown is best-effort cleanup, not a condition the caller can act on.
func (c *ContainerRuntime) Close() {
	_ = exec.Command("docker", "stop", c.ContainerName).Run()
	_ = exec.Command("docker", "rm", c.ContainerName).Run()
}

var _ Runtime = (*ContainerRuntime)(nil)
